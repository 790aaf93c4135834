package metadata_test

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	. "gopkg.in/check.v1"

	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/metadata"
)

func load(c *C, packagerPrefix string, environ []string, defaultsFile string) *metadata.Map {
	m, err := metadata.Load(zerolog.Nop(), packagerPrefix, environ, defaultsFile)
	c.Assert(err, IsNil)
	return m
}

func (s *S) TestLoadFromEnviron(c *C) {
	m := load(c, "DEB", []string{
		"LDNP_META_DESCRIPTION=global",
		"PATH=/usr/bin",
		"LDNP_META_VERSION=1.0",
	}, "")
	c.Assert(m.Value("DESCRIPTION"), Equals, "global")
	c.Assert(m.Value("VERSION"), Equals, "1.0")
	_, ok := m.Get("PATH")
	c.Assert(ok, Equals, false)
}

func (s *S) TestPackagerSpecificPrecedence(c *C) {
	// The packager-specific value must win no matter which variable
	// comes first in the environment.
	environs := [][]string{{
		"LDNP_META_DEB_DESCRIPTION=specific",
		"LDNP_META_DESCRIPTION=global",
	}, {
		"LDNP_META_DESCRIPTION=global",
		"LDNP_META_DEB_DESCRIPTION=specific",
	}}
	for _, environ := range environs {
		m := load(c, "DEB", environ, "")
		c.Assert(m.Value("DESCRIPTION"), Equals, "specific")
	}
}

func (s *S) TestOtherPackagerVariableStaysGlobal(c *C) {
	// For the DEB packager, LDNP_META_RPM_X is just a global variable
	// with the identifier RPM_X.
	m := load(c, "DEB", []string{"LDNP_META_RPM_LICENSE=MIT"}, "")
	c.Assert(m.Value("RPM_LICENSE"), Equals, "MIT")
	c.Assert(m.Value("LICENSE"), Equals, "")
}

func (s *S) TestCaseInsensitive(c *C) {
	m := load(c, "RPM", nil, "")
	m.Set("Package_Name", "demo")
	c.Assert(m.Value("PACKAGE_NAME"), Equals, "demo")
	c.Assert(m.Value("package_name"), Equals, "demo")
}

func (s *S) TestDefaultsFile(c *C) {
	path := filepath.Join(c.MkDir(), "defaults.yaml")
	c.Assert(os.WriteFile(path, []byte("package_name: demo\ndescription: from file\n"), 0644), IsNil)

	m := load(c, "DEB", []string{"LDNP_META_DESCRIPTION=from env"}, path)
	// Environment overrides the defaults file.
	c.Assert(m.Value("DESCRIPTION"), Equals, "from env")
	c.Assert(m.Value("PACKAGE_NAME"), Equals, "demo")
}

func (s *S) TestDefaultsFileInvalid(c *C) {
	path := filepath.Join(c.MkDir(), "defaults.yaml")
	c.Assert(os.WriteFile(path, []byte(":\tnot yaml"), 0644), IsNil)
	_, err := metadata.Load(zerolog.Nop(), "DEB", nil, path)
	c.Assert(err, ErrorMatches, `cannot parse metadata defaults .*`)
}

func (s *S) TestSetDefault(c *C) {
	m := load(c, "DEB", []string{"LDNP_META_VERSION=2.0"}, "")
	m.SetDefault("VERSION", "1.0")
	m.SetDefault("PACKAGE_NAME", "demo")
	c.Assert(m.Value("VERSION"), Equals, "2.0")
	c.Assert(m.Value("PACKAGE_NAME"), Equals, "demo")
}

func (s *S) TestRequire(c *C) {
	m := load(c, "DEB", nil, "")
	m.Set("PACKAGE_NAME", "demo")
	c.Assert(m.Require("PACKAGE_NAME"), IsNil)
	err := m.Require("PACKAGE_NAME", "version")
	c.Assert(err, ErrorMatches, `required metadata VERSION is not set .*`)
}

func (s *S) TestValueOr(c *C) {
	m := load(c, "DEB", nil, "")
	m.Set("EMPTY", "")
	c.Assert(m.ValueOr("EMPTY", "fallback"), Equals, "fallback")
	c.Assert(m.ValueOr("MISSING", "fallback"), Equals, "fallback")
	m.Set("SET", "value")
	c.Assert(m.ValueOr("SET", "fallback"), Equals, "value")
}

func (s *S) TestKeys(c *C) {
	m := load(c, "DEB", []string{"LDNP_META_B=2", "LDNP_META_A=1"}, "")
	c.Assert(m.Keys(), DeepEquals, []string{"A", "B"})
}
