package sortedset_test

import (
	. "gopkg.in/check.v1"

	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/lib/sortedset"
)

type stringSortedSetAddOneTest struct {
	set    sortedset.String
	add    string
	added  bool
	result sortedset.String
}

var stringSortedSetAddOneTests = []stringSortedSetAddOneTest{
	{[]string{"a", "b", "c"}, "", true, []string{"", "a", "b", "c"}},
	{[]string{"a", "b", "c"}, "a", false, []string{"a", "b", "c"}},
	{[]string{"b", "d"}, "a", true, []string{"a", "b", "d"}},
	{[]string{"b", "d"}, "c", true, []string{"b", "c", "d"}},
	{[]string{"b", "d"}, "e", true, []string{"b", "d", "e"}},
	{[]string{}, "a", true, []string{"a"}},
	{nil, "a", true, []string{"a"}},
}

func (s *S) TestStringAddOne(c *C) {
	for _, test := range stringSortedSetAddOneTests {
		result, added := test.set.AddOne(test.add)
		c.Assert(result, DeepEquals, test.result)
		c.Assert(added, Equals, test.added)
	}
}
