package store

import "collegeportal/internal/catalog/models"

// FixtureProjects returns the built-in project list in catalog order.
func FixtureProjects() []models.Project {
	return []models.Project{
		{
			ID:              "1",
			Title:           "AI-Powered Smart Campus System",
			Description:     "An integrated system that uses artificial intelligence to optimize campus operations including energy management, security surveillance, and student attendance tracking.",
			InstitutionName: "MIT University",
			Thumbnail:       "https://images.unsplash.com/photo-1488590528505-98d2b5aba04b?auto=format&fit=crop&w=500&h=300",
			CreatedAt:       "2023-06-15",
			Tags:            []string{"AI", "IoT", "Machine Learning"},
		},
		{
			ID:              "2",
			Title:           "Blockchain-Based Academic Credential Verification",
			Description:     "A secure platform that uses blockchain technology to issue, store, and verify academic credentials, eliminating certificate forgery.",
			InstitutionName: "Stanford University",
			Thumbnail:       "https://images.unsplash.com/photo-1498050108023-c5249f4df085?auto=format&fit=crop&w=500&h=300",
			CreatedAt:       "2023-05-20",
			Tags:            []string{"Blockchain", "Security", "EdTech"},
		},
		{
			ID:              "3",
			Title:           "Virtual Reality Biology Lab",
			Description:     "An immersive VR biology lab that allows students to conduct complex experiments virtually with realistic simulations.",
			InstitutionName: "Harvard University",
			Thumbnail:       "https://images.unsplash.com/photo-1581091226825-a6a2a5aee158?auto=format&fit=crop&w=500&h=300",
			CreatedAt:       "2023-07-05",
			Tags:            []string{"VR", "Education", "Biology"},
		},
		{
			ID:              "4",
			Title:           "Student Mental Health Support App",
			Description:     "A mobile application that provides mental health resources, anonymous peer support, and direct connections to campus counselors.",
			InstitutionName: "Yale University",
			Thumbnail:       "https://images.unsplash.com/photo-1486312338219-ce68d2c6f44d?auto=format&fit=crop&w=500&h=300",
			CreatedAt:       "2023-04-10",
			Tags:            []string{"Mental Health", "Mobile App", "Support Services"},
		},
		{
			ID:              "5",
			Title:           "Sustainable Campus Water Management",
			Description:     "An innovative water management system that captures rainwater, processes greywater, and reduces campus water consumption by 40%.",
			InstitutionName: "MIT University",
			Thumbnail:       "https://images.unsplash.com/photo-1501854140801-50d01698950b?auto=format&fit=crop&w=500&h=300",
			CreatedAt:       "2023-03-22",
			Tags:            []string{"Sustainability", "Water Management", "Environmental"},
		},
		{
			ID:              "6",
			Title:           "Adaptive Learning Platform",
			Description:     "A personalized learning platform that adapts course materials based on individual student performance and learning styles.",
			InstitutionName: "Stanford University",
			Thumbnail:       "https://images.unsplash.com/photo-1461749280684-dccba630e2f6?auto=format&fit=crop&w=500&h=300",
			CreatedAt:       "2023-08-01",
			Tags:            []string{"EdTech", "Personalization", "AI"},
		},
	}
}

// FixtureInstitutions returns the built-in institution list in catalog order.
func FixtureInstitutions() []models.Institution {
	return []models.Institution{
		{ID: "1", Name: "MIT University", ProjectCount: 2, Location: "Cambridge, MA"},
		{ID: "2", Name: "Stanford University", ProjectCount: 2, Location: "Stanford, CA"},
		{ID: "3", Name: "Harvard University", ProjectCount: 1, Location: "Cambridge, MA"},
		{ID: "4", Name: "Yale University", ProjectCount: 1, Location: "New Haven, CT"},
	}
}
