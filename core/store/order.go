// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package store

import "sort"

// SortProjects orders projects featured first, then by ascending id
func SortProjects(projects []Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		if projects[i].Featured != projects[j].Featured {
			return projects[i].Featured
		}
		return projects[i].ID < projects[j].ID
	})
}

// SortSkills orders skills by ascending id
func SortSkills(skills []Skill) {
	sort.SliceStable(skills, func(i, j int) bool {
		return skills[i].ID < skills[j].ID
	})
}

// SortContacts orders contacts newest first. Contacts with the same timestamp
// are ordered by descending id.
func SortContacts(contacts []Contact) {
	sort.SliceStable(contacts, func(i, j int) bool {
		if !contacts[i].Timestamp.Equal(contacts[j].Timestamp) {
			return contacts[i].Timestamp.After(contacts[j].Timestamp)
		}
		return contacts[i].ID > contacts[j].ID
	})
}

// Aggregate computes the statistics over full entity lists
func Aggregate(projects []Project, skills []Skill, contacts []Contact) Stats {
	stats := Stats{
		TotalProjects:    len(projects),
		TotalSkills:      len(skills),
		TotalContacts:    len(contacts),
		SkillsByCategory: map[string]int{},
	}
	for _, p := range projects {
		if p.Featured {
			stats.FeaturedProjects++
		}
	}
	for _, s := range skills {
		stats.SkillsByCategory[s.Category]++
	}
	for _, c := range contacts {
		if !c.Read {
			stats.UnreadContacts++
		}
	}
	return stats
}
