// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package store

import (
	"context"
	"fmt"

	"github.com/relabs-tech/folio/core/logger"
)

// DefaultProjects returns the projects a fresh installation starts with
func DefaultProjects() []Project {
	return []Project{
		{
			Title:       "E-Commerce Platform",
			Description: "Full-stack online store with product catalog, cart, checkout and payment integration.",
			Tech:        []string{"React", "Node.js", "MongoDB", "Stripe"},
			Link:        DefaultLink,
			Featured:    true,
		},
		{
			Title:       "Task Management App",
			Description: "Collaborative task board with drag and drop, real-time updates and team workspaces.",
			Tech:        []string{"React", "Firebase", "Tailwind CSS"},
			Link:        DefaultLink,
			Featured:    true,
		},
		{
			Title:       "Social Media Dashboard",
			Description: "Analytics dashboard aggregating engagement metrics across social networks.",
			Tech:        []string{"Vue.js", "Express.js", "Chart.js"},
			Link:        DefaultLink,
			Featured:    true,
		},
		{
			Title:       "Real-Time Chat App",
			Description: "Messaging application with rooms, typing indicators and message history.",
			Tech:        []string{"Socket.io", "Node.js", "Redis"},
			Link:        DefaultLink,
		},
		{
			Title:       "Weather Forecast App",
			Description: "Location based forecasts with hourly and weekly views.",
			Tech:        []string{"JavaScript", "OpenWeather API", "CSS"},
			Link:        DefaultLink,
		},
		{
			Title:       "Portfolio CMS",
			Description: "Headless content management for personal portfolio sites.",
			Tech:        []string{"Next.js", "PostgreSQL", "Prisma"},
			Link:        DefaultLink,
		},
	}
}

// DefaultSkills returns the skills a fresh installation starts with
func DefaultSkills() []Skill {
	return []Skill{
		{Name: "React.js", Category: "frontend"},
		{Name: "Node.js", Category: "backend"},
		{Name: "TypeScript", Category: "frontend"},
		{Name: "MongoDB", Category: "backend"},
		{Name: "Express.js", Category: "backend"},
		{Name: "Tailwind CSS", Category: "frontend"},
		{Name: "PostgreSQL", Category: "backend"},
		{Name: "Git & GitHub", Category: "tools"},
		{Name: "Docker", Category: "tools"},
		{Name: "AWS", Category: "cloud"},
	}
}

// Seed creates the default projects and skills unless the store already holds
// projects or skills.
func Seed(ctx context.Context, s Store) error {
	rlog := logger.FromContext(ctx)

	projects, err := s.ListProjects(ctx, ProjectFilter{})
	if err != nil {
		return fmt.Errorf("cannot list projects: %w", err)
	}
	if len(projects) == 0 {
		for _, p := range DefaultProjects() {
			if _, err := s.CreateProject(ctx, p); err != nil {
				return fmt.Errorf("cannot seed project %q: %w", p.Title, err)
			}
		}
		rlog.Infof("seeded %d projects", len(DefaultProjects()))
	}

	skills, err := s.ListSkills(ctx, SkillFilter{})
	if err != nil {
		return fmt.Errorf("cannot list skills: %w", err)
	}
	if len(skills) == 0 {
		for _, sk := range DefaultSkills() {
			if _, err := s.CreateSkill(ctx, sk); err != nil {
				return fmt.Errorf("cannot seed skill %q: %w", sk.Name, err)
			}
		}
		rlog.Infof("seeded %d skills", len(DefaultSkills()))
	}
	return nil
}
