package store

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/relabs-tech/folio/core/pointers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectPatchDetectsNullImage(t *testing.T) {
	var patch ProjectPatch
	require.NoError(t, json.Unmarshal([]byte(`{"image":null}`), &patch))
	assert.True(t, patch.ClearImage)
	assert.False(t, patch.IsEmpty())

	patch = ProjectPatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"title":"New"}`), &patch))
	assert.False(t, patch.ClearImage)
	assert.Equal(t, "New", pointers.Safe(patch.Title))

	patch = ProjectPatch{}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &patch))
	assert.True(t, patch.IsEmpty())
}

func TestProjectPatchApplyKeepsUnmentioned(t *testing.T) {
	project := Project{ID: 3, Title: "Old", Description: "D", Tech: []string{"Go"}, Link: "x", Image: pointers.StringPtr("img"), Featured: true}
	ProjectPatch{Title: pointers.StringPtr("New")}.Apply(&project)
	assert.Equal(t, Project{ID: 3, Title: "New", Description: "D", Tech: []string{"Go"}, Link: "x", Image: pointers.StringPtr("img"), Featured: true}, project)

	ProjectPatch{ClearImage: true, Featured: pointers.BoolPtr(false)}.Apply(&project)
	assert.Nil(t, project.Image)
	assert.False(t, project.Featured)
}

func TestNewProjectDefaults(t *testing.T) {
	project := NewProject(ProjectPatch{
		Title:       pointers.StringPtr("T"),
		Description: pointers.StringPtr("D"),
		Tech:        []string{"Go"},
	})
	assert.Equal(t, DefaultLink, project.Link)
	assert.Nil(t, project.Image)
	assert.False(t, project.Featured)
	assert.Zero(t, project.ID)
}

func TestSortProjectsFeaturedFirst(t *testing.T) {
	projects := []Project{{ID: 4}, {ID: 2, Featured: true}, {ID: 1}, {ID: 3, Featured: true}}
	SortProjects(projects)
	var ids []int64
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int64{2, 3, 1, 4}, ids)
}

func TestSortContactsNewestFirst(t *testing.T) {
	now := time.Now()
	contacts := []Contact{
		{ID: 1, Timestamp: now.Add(-time.Hour)},
		{ID: 2, Timestamp: now},
		{ID: 3, Timestamp: now},
	}
	SortContacts(contacts)
	assert.Equal(t, int64(3), contacts[0].ID)
	assert.Equal(t, int64(2), contacts[1].ID)
	assert.Equal(t, int64(1), contacts[2].ID)
}

func TestAggregate(t *testing.T) {
	stats := Aggregate(
		[]Project{{Featured: true}, {}},
		[]Skill{{Category: "frontend"}, {Category: "frontend"}, {Category: "cloud"}},
		[]Contact{{Read: true}, {}, {}},
	)
	assert.Equal(t, Stats{
		TotalProjects:    2,
		FeaturedProjects: 1,
		TotalSkills:      3,
		SkillsByCategory: map[string]int{"frontend": 2, "cloud": 1},
		TotalContacts:    3,
		UnreadContacts:   2,
	}, stats)
}

func TestDefaultSeedData(t *testing.T) {
	projects := DefaultProjects()
	require.Len(t, projects, 6)
	for i, p := range projects {
		assert.Equal(t, i < 3, p.Featured, p.Title)
	}
	assert.Len(t, DefaultSkills(), 10)
}

func TestProjectPatchEmptyImageClears(t *testing.T) {
	var patch ProjectPatch
	require.NoError(t, json.Unmarshal([]byte(`{"image":""}`), &patch))
	assert.Nil(t, patch.Image)
	assert.True(t, patch.ClearImage)

	project := Project{Title: "T", Image: pointers.StringPtr("img.png")}
	patch.Apply(&project)
	assert.Nil(t, project.Image)

	project.Image = pointers.StringPtr("img.png")
	ProjectPatch{Image: pointers.StringPtr("")}.Apply(&project)
	assert.Nil(t, project.Image, "an empty image is stored as no image on update like on create")
	assert.Nil(t, NewProject(ProjectPatch{Image: pointers.StringPtr("")}).Image)
}

func TestSkillPatchApply(t *testing.T) {
	skill := Skill{ID: 1, Name: "Go", Level: pointers.IntPtr(80), Category: "backend"}
	SkillPatch{Category: pointers.StringPtr("languages")}.Apply(&skill)
	assert.Equal(t, Skill{ID: 1, Name: "Go", Level: pointers.IntPtr(80), Category: "languages"}, skill)

	level := 90
	SkillPatch{Level: &level}.Apply(&skill)
	level = 10
	assert.Equal(t, 90, *skill.Level, "the skill does not share the level of the patch")
}
