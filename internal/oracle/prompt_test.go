package oracle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	corpus := "name: A\nprofile_text: x\n"
	p := BuildPrompt("AWS, Terraform", corpus)

	assert.Contains(t, p, "\"\"\"\nAWS, Terraform\n\"\"\"")
	assert.Contains(t, p, "\"\"\"\n"+corpus+"\n\"\"\"")
	assert.Contains(t, p, "Rank the consultants from 1 to 5")
	assert.Less(t, strings.Index(p, "AWS, Terraform"), strings.Index(p, corpus))
}

func TestBuildPromptKeepsPlaceholdersInInput(t *testing.T) {
	p := BuildPrompt("{{corpus}}", "real corpus")
	assert.Equal(t, 1, strings.Count(p, "real corpus"))
	assert.Contains(t, p, "\"\"\"\n{{corpus}}\n\"\"\"")
}

func TestBuildPromptEmptyQuery(t *testing.T) {
	p := BuildPrompt("", "c")
	assert.Contains(t, p, "to match against:\n\"\"\"\n\n\"\"\"")
}
