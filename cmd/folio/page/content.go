package page

import (
	"folio/internal/viewstate"
)

// Experience is one entry of the about section's timeline.
type Experience struct {
	Years       string
	Role        string
	Company     string
	Description string
}

// Skill is one skill with a self-assessed level from 0 to 100.
type Skill struct {
	Name  string
	Level int
}

// SkillCategory groups skills under a heading.
type SkillCategory struct {
	Name   string
	Skills []Skill
}

// Project is one card of the projects section.
type Project struct {
	Title        string
	Description  string
	Technologies []string
	Category     string
	Featured     bool
}

// ProjectFilter is one entry of the projects section's category row.
type ProjectFilter struct {
	ID    string
	Label string
}

// FilterAll shows every project.
const FilterAll = "all"

// Content is the copy of the page.
type Content struct {
	Owner         string
	Tagline       string
	About         string // markdown
	Experience    []Experience
	Skills        []SkillCategory
	ProjectsIntro string // markdown
	Projects      []Project
	Filters       []ProjectFilter
	ContactIntro  string // markdown
	Titles        map[viewstate.SectionID]string
}

// Title returns the navigation label of a section.
func (c Content) Title(id viewstate.SectionID) string {
	if t, ok := c.Titles[id]; ok {
		return t
	}
	return string(id)
}

// DefaultContent returns the built-in page copy.
func DefaultContent() Content {
	return Content{
		Owner:   "Kibrom",
		Tagline: "I build fast, accessible products for the web and the terminal.",
		About: `I started writing software to automate my own chores and never stopped.
These days I design **APIs**, ship **interfaces**, and care about the path between them.`,
		Experience: []Experience{
			{
				Years:       "2022 - Present",
				Role:        "Senior Full Stack Engineer",
				Company:     "Tech Innovators Inc.",
				Description: "Leading development of scalable web applications using React, Node.js, and cloud technologies.",
			},
			{
				Years:       "2020 - 2022",
				Role:        "Frontend Developer",
				Company:     "Digital Solutions LLC",
				Description: "Built responsive user interfaces and collaborated with design teams to implement pixel-perfect designs.",
			},
			{
				Years:       "2019 - 2020",
				Role:        "Junior Developer",
				Company:     "StartUp Ventures",
				Description: "Started my career building web applications and learning modern development practices.",
			},
		},
		Skills: []SkillCategory{
			{Name: "Frontend", Skills: []Skill{{"React", 95}, {"TypeScript", 90}, {"Next.js", 88}, {"Tailwind CSS", 92}}},
			{Name: "Backend", Skills: []Skill{{"Node.js", 85}, {"Express", 82}, {"PostgreSQL", 78}, {"MongoDB", 75}}},
			{Name: "Tools", Skills: []Skill{{"Git", 90}, {"Docker", 80}, {"AWS", 75}, {"Figma", 85}}},
		},
		ProjectsIntro: "A selection of things I have built recently. Press **c** to filter by category.",
		Projects: []Project{
			{
				Title:        "E-Commerce Platform",
				Description:  "A full-stack e-commerce solution with real-time inventory, payment processing, and an admin dashboard.",
				Technologies: []string{"React", "Node.js", "PostgreSQL", "Stripe"},
				Category:     "fullstack",
				Featured:     true,
			},
			{
				Title:        "Task Management App",
				Description:  "A collaborative task manager with real-time updates, drag-and-drop boards, and team features.",
				Technologies: []string{"React", "TypeScript", "Socket.io", "MongoDB"},
				Category:     "frontend",
				Featured:     true,
			},
			{
				Title:        "Weather Dashboard",
				Description:  "Location-based forecasts with interactive maps and detailed weather analytics.",
				Technologies: []string{"Vue.js", "Chart.js", "API Integration"},
				Category:     "frontend",
			},
			{
				Title:        "API Gateway Service",
				Description:  "A microservices gateway with rate limiting, authentication, and request routing.",
				Technologies: []string{"Node.js", "Redis", "Docker", "Kubernetes"},
				Category:     "backend",
			},
			{
				Title:        "Mobile Fitness App",
				Description:  "Cross-platform fitness tracking with workout plans, progress analytics, and social features.",
				Technologies: []string{"React Native", "Firebase", "Redux"},
				Category:     "mobile",
				Featured:     true,
			},
			{
				Title:        "Data Visualization Tool",
				Description:  "Business intelligence dashboards with real-time charts and reporting.",
				Technologies: []string{"D3.js", "React", "Python", "FastAPI"},
				Category:     "fullstack",
			},
		},
		Filters: []ProjectFilter{
			{ID: FilterAll, Label: "All Projects"},
			{ID: "fullstack", Label: "Full Stack"},
			{ID: "frontend", Label: "Frontend"},
			{ID: "backend", Label: "Backend"},
			{ID: "mobile", Label: "Mobile"},
		},
		ContactIntro: "Have a project in mind? Press **tab** to start typing and **enter** on the last field to send.",
		Titles: map[viewstate.SectionID]string{
			viewstate.SectionHome:     "Home",
			viewstate.SectionAbout:    "About",
			viewstate.SectionProjects: "Projects",
			viewstate.SectionContact:  "Contact",
		},
	}
}

// FilterProjects returns the projects of a category, in page order. FilterAll and
// an empty filter return every project.
func (c Content) FilterProjects(filter string) []Project {
	if filter == "" || filter == FilterAll {
		return c.Projects
	}
	var out []Project
	for _, p := range c.Projects {
		if p.Category == filter {
			out = append(out, p)
		}
	}
	return out
}

// NextFilter returns the filter after current, wrapping around.
func (c Content) NextFilter(current string) string {
	if len(c.Filters) == 0 {
		return FilterAll
	}
	for i, f := range c.Filters {
		if f.ID == current {
			return c.Filters[(i+1)%len(c.Filters)].ID
		}
	}
	return c.Filters[0].ID
}

// groupLen returns the item count behind a configured stagger group name.
func (c Content) groupLen(name, filter string) int {
	switch name {
	case "experience":
		return len(c.Experience)
	case "skills":
		return len(c.Skills)
	case "projects":
		return len(c.FilterProjects(filter))
	}
	return 0
}
