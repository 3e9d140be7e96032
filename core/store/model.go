// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package store

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/folio/core/pointers"
)

// DefaultLink is the link of a project created without one
const DefaultLink = "#"

// Project is a portfolio project
type Project struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tech        []string `json:"tech"`
	Link        string   `json:"link"`
	Image       *string  `json:"image"`
	Featured    bool     `json:"featured"`
}

// ProjectPatch carries the fields of a project create or partial update. A nil
// field is not mentioned and stays untouched. Tech is not mentioned when nil.
//
// ClearImage is set when the payload explicitly carries "image": null.
type ProjectPatch struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Tech        []string `json:"tech,omitempty"`
	Link        *string  `json:"link,omitempty"`
	Image       *string  `json:"image,omitempty"`
	ClearImage  bool     `json:"-"`
	Featured    *bool    `json:"featured,omitempty"`
}

// UnmarshalJSON detects an explicit null image on top of the default decoding
func (p *ProjectPatch) UnmarshalJSON(data []byte) error {
	type plain ProjectPatch
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = ProjectPatch(decoded)
	if v, ok := raw["image"]; ok && string(v) == "null" {
		p.ClearImage = true
	}
	p.NormalizeImage()
	return nil
}

// NormalizeImage turns an empty image into an explicit clear, the same way
// NewProject stores no image for an empty one
func (p *ProjectPatch) NormalizeImage() {
	if p.Image != nil && *p.Image == "" {
		p.Image = nil
		p.ClearImage = true
	}
}

// IsEmpty returns true if the patch does not mention any field
func (p ProjectPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Tech == nil &&
		p.Link == nil && p.Image == nil && !p.ClearImage && p.Featured == nil
}

// Apply changes the mentioned fields of project
func (p ProjectPatch) Apply(project *Project) {
	p.NormalizeImage()
	project.Title = pointers.Or(p.Title, project.Title)
	project.Description = pointers.Or(p.Description, project.Description)
	if p.Tech != nil {
		project.Tech = append([]string(nil), p.Tech...)
	}
	project.Link = pointers.Or(p.Link, project.Link)
	if p.ClearImage {
		project.Image = nil
	}
	if p.Image != nil {
		project.Image = pointers.To(*p.Image)
	}
	project.Featured = pointers.Or(p.Featured, project.Featured)
}

// NewProject builds a project to be created from p, applying the defaults for
// link, image and featured.
func NewProject(p ProjectPatch) Project {
	project := Project{Link: DefaultLink, Tech: []string{}}
	p.Apply(&project)
	if project.Link == "" {
		project.Link = DefaultLink
	}
	if project.Image != nil && *project.Image == "" {
		project.Image = nil
	}
	return project
}

// ProjectFilter filters project lists. A nil Featured lists all projects.
type ProjectFilter struct {
	Featured *bool
}

// Skill is a skill with an open category label, e.g. frontend or cloud
type Skill struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Level    *int   `json:"level,omitempty"`
	Category string `json:"category"`
}

// SkillPatch carries the fields of a skill create or partial update
type SkillPatch struct {
	Name     *string `json:"name,omitempty"`
	Level    *int    `json:"level,omitempty"`
	Category *string `json:"category,omitempty"`
}

// IsEmpty returns true if the patch does not mention any field
func (p SkillPatch) IsEmpty() bool {
	return p.Name == nil && p.Level == nil && p.Category == nil
}

// Apply changes the mentioned fields of skill
func (p SkillPatch) Apply(skill *Skill) {
	skill.Name = pointers.Or(p.Name, skill.Name)
	if p.Level != nil {
		skill.Level = pointers.To(*p.Level)
	}
	skill.Category = pointers.Or(p.Category, skill.Category)
}

// NewSkill builds a skill to be created from p
func NewSkill(p SkillPatch) Skill {
	var skill Skill
	p.Apply(&skill)
	return skill
}

// SkillFilter filters skill lists. An empty Category lists all skills.
type SkillFilter struct {
	Category string
}

// Contact is a message submitted through the contact form
type Contact struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// NewContact is a normalized contact submission
type NewContact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// User is an account which may sign in to administrate the portfolio
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// RefreshToken is a stored refresh token. Only the hash of the token is kept.
type RefreshToken struct {
	Hash      string    `json:"token_hash"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Stats is a snapshot derived from the current store contents
type Stats struct {
	TotalProjects    int            `json:"totalProjects"`
	FeaturedProjects int            `json:"featuredProjects"`
	TotalSkills      int            `json:"totalSkills"`
	SkillsByCategory map[string]int `json:"skillsByCategory"`
	TotalContacts    int            `json:"totalContacts"`
	UnreadContacts   int            `json:"unreadContacts"`
}
