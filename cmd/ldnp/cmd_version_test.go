package main_test

import (
	. "gopkg.in/check.v1"

	ldnp "github.com/linuxdeploy/linuxdeploy-plugin-native-packages/cmd/ldnp"
)

func (s *LdnpSuite) TestVersionCommand(c *C) {
	restore := fakeVersion("4.56")
	defer restore()

	_, err := ldnp.Parser().ParseArgs([]string{"version"})
	c.Assert(err, IsNil)
	c.Assert(s.Stdout(), Equals, "4.56\n")
	c.Assert(s.Stderr(), Equals, "")
}

func (s *LdnpSuite) TestVersionExtraArgs(c *C) {
	_, err := ldnp.Parser().ParseArgs([]string{"version", "surplus"})
	c.Assert(err, Equals, ldnp.ErrExtraArgs)
}
