package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/fadilmartias/career-assessment/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{"skills-talents", "personality", "values"}, c.LiteCategoryIDs())

	total := 0
	for _, set := range c.ListLiteCategories() {
		total += len(set.Questions)
	}
	assert.Equal(t, 37, total)

	assert.Len(t, c.DeepModuleIDs(), 12)
	assert.Equal(t, "A", c.DeepModuleIDs()[0])

	meta := c.ListDeepModuleMetadata()
	require.Len(t, meta, 12)
	for _, m := range meta {
		set, err := c.DeepModule(m.ModuleID)
		require.NoError(t, err)
		assert.Equal(t, len(set.Questions), m.QuestionCount)
		assert.Positive(t, m.EstimatedMinutes)
	}
}

func TestQuestionBucketsResolvedAtLoad(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	q, ok := c.Question("a2_risk")
	require.True(t, ok)
	assert.Equal(t, model.BucketTalents, q.Bucket)
	assert.Equal(t, "skills-talents", q.SetID)

	q, ok = c.Question("ctx_l01")
	require.True(t, ok)
	assert.Equal(t, model.BucketSession, q.Bucket)
	assert.Equal(t, "L", q.SetID)

	_, ok = c.Question("zz_missing")
	assert.False(t, ok)
}

func TestDeepModuleNotFound(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	_, err = c.DeepModule("Z")
	assert.True(t, errors.Is(err, ErrModuleNotFound))
	assert.False(t, c.HasDeepModule("Z"))
}

func TestLoadYAML(t *testing.T) {
	doc := `
version: test
lite:
  - id: skills-talents
    title: Skills
    questions:
      - {id: a2_x, type: scale, text: X}
deep:
  - id: A
    title: Module A
    recommended: true
    estimatedMinutes: 5
    questions:
      - {id: a1_y, type: ranking, text: Y, options: [p, q]}
`
	c, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "test", c.Version())
	q, ok := c.Question("a1_y")
	require.True(t, ok)
	assert.Equal(t, QuestionRanking, q.Type)
	assert.Equal(t, model.BucketPersonality, q.Bucket)
}

func TestLoadRejectsInvalidContent(t *testing.T) {
	cases := map[string]string{
		"no underscore": `{"lite":[{"id":"s","questions":[{"id":"a2x","type":"scale"}]}],"deep":[{"id":"A","questions":[{"id":"a1_y","type":"text"}]}]}`,
		"duplicate id":  `{"lite":[{"id":"s","questions":[{"id":"a2_x","type":"scale"}]}],"deep":[{"id":"A","questions":[{"id":"a2_x","type":"text"}]}]}`,
		"bad type":      `{"lite":[{"id":"s","questions":[{"id":"a2_x","type":"slider"}]}],"deep":[{"id":"A","questions":[{"id":"a1_y","type":"text"}]}]}`,
		"lite session":  `{"lite":[{"id":"s","questions":[{"id":"meta_x","type":"text"}]}],"deep":[{"id":"A","questions":[{"id":"a1_y","type":"text"}]}]}`,
		"no deep":       `{"lite":[{"id":"s","questions":[{"id":"a2_x","type":"scale"}]}]}`,
		"dup module":    `{"lite":[{"id":"s","questions":[{"id":"a2_x","type":"scale"}]}],"deep":[{"id":"A","questions":[{"id":"a1_y","type":"text"}]},{"id":"A","questions":[{"id":"a1_z","type":"text"}]}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}
