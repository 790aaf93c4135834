package packager

var (
	LauncherScript          = launcherScript
	WriteLauncherScript     = writeLauncherScript
	QuoteShell              = quoteShell
	FormatDescriptionBody   = formatDescriptionBody
	CollapseBlankLines      = collapseBlankLines
	ComputeInstalledSizeKiB = computeInstalledSizeKiB
	ExtractShebang          = extractShebang
)

func (p *Packager) MergeTree() error {
	return p.mergeTree()
}

func (p *Packager) InstallRootDir() string {
	return p.installRootDir
}

func (p *Packager) AppDirInstallPath() string {
	return p.appDirInstallPath
}

func (p *Packager) WorkDir() string {
	return p.workDir
}

func (p *DebPackager) GenerateControlFile() error {
	return p.generateControlFile()
}

func (p *RpmPackager) BuildFileList() ([]string, error) {
	return p.buildFileList()
}

func (p *RpmPackager) LoadScriptlets() ([]Scriptlet, error) {
	return p.loadScriptlets()
}

func (p *RpmPackager) FixRpmVersion(version string) string {
	return p.fixRpmVersion(version)
}

func (p *RpmPackager) GenerateSpecFile() error {
	return p.generateSpecFile()
}
