package person

import (
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/models"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/region"
)

// Built-in corpus of notable figures, keyed by content region. Entries are
// read-only after load; custom persons added at runtime live for the session.

func globalPersons() []models.Person {
	return []models.Person{
		{ID: "gp-001", Name: "Nelson Mandela", Title: "Anti-Apartheid Revolutionary", Description: "Led South Africa's transition from apartheid to multi-racial democracy.", Achievement: "First democratically elected President of South Africa", BirthYear: 1918, Field: "Politics", Region: "global", Nationality: "South African", PhotoQuery: "nelson mandela portrait", WikiURL: "https://en.wikipedia.org/wiki/Nelson_Mandela"},
		{ID: "gp-002", Name: "Marie Curie", Title: "Pioneering Physicist and Chemist", Description: "Conducted groundbreaking research on radioactivity.", Achievement: "First person to win Nobel Prizes in two scientific fields", BirthYear: 1867, Field: "Science", Region: "global", Nationality: "Polish-French", PhotoQuery: "marie curie scientist portrait", WikiURL: "https://en.wikipedia.org/wiki/Marie_Curie"},
		{ID: "gp-003", Name: "Rabindranath Tagore", Title: "Poet and Polymath", Description: "Reshaped Bengali literature and music, first non-European Nobel laureate in Literature.", Achievement: "Nobel Prize in Literature, 1913", BirthYear: 1861, Field: "Literature", Region: "global", Nationality: "Indian", PhotoQuery: "rabindranath tagore portrait", WikiURL: "https://en.wikipedia.org/wiki/Rabindranath_Tagore"},
		{ID: "gp-004", Name: "Katherine Johnson", Title: "NASA Mathematician", Description: "Calculated orbital trajectories for the Mercury and Apollo missions.", Achievement: "Presidential Medal of Freedom, 2015", BirthYear: 1918, Field: "Mathematics", Region: "global", Nationality: "American", PhotoQuery: "katherine johnson nasa portrait", WikiURL: "https://en.wikipedia.org/wiki/Katherine_Johnson"},
		{ID: "gp-005", Name: "Wangari Maathai", Title: "Environmental Activist", Description: "Founded the Green Belt Movement planting tens of millions of trees.", Achievement: "Nobel Peace Prize, 2004", BirthYear: 1940, Field: "Environment", Region: "global", Nationality: "Kenyan", PhotoQuery: "wangari maathai portrait", WikiURL: "https://en.wikipedia.org/wiki/Wangari_Maathai"},
	}
}

func regionalPersons() map[region.Tag][]models.Person {
	return map[region.Tag][]models.Person{
		region.TagPunjab: {
			{ID: "pp-001", Name: "Bhagat Singh", Title: "Revolutionary Freedom Fighter", Description: "Central figure of the Indian independence movement from Punjab.", Achievement: "Inspired generations in the struggle for independence", BirthYear: 1907, Field: "Independence Movement", Region: "punjab", Nationality: "Indian", PhotoQuery: "bhagat singh portrait", WikiURL: "https://en.wikipedia.org/wiki/Bhagat_Singh"},
			{ID: "pp-002", Name: "Maharaja Ranjit Singh", Title: "Lion of Punjab", Description: "Founder of the Sikh Empire, uniting Punjab in the early 19th century.", Achievement: "Built a secular, prosperous empire across Punjab", BirthYear: 1780, Field: "Statecraft", Region: "punjab", Nationality: "Punjabi", PhotoQuery: "maharaja ranjit singh painting", WikiURL: "https://en.wikipedia.org/wiki/Ranjit_Singh"},
			{ID: "pp-003", Name: "Amrita Pritam", Title: "Poet and Novelist", Description: "First prominent woman Punjabi poet, voice of Partition's grief.", Achievement: "Sahitya Akademi Award and Jnanpith Award", BirthYear: 1919, Field: "Literature", Region: "punjab", Nationality: "Indian", PhotoQuery: "amrita pritam writer portrait", WikiURL: "https://en.wikipedia.org/wiki/Amrita_Pritam"},
			{ID: "pp-004", Name: "Milkha Singh", Title: "The Flying Sikh", Description: "Track legend who overcame Partition-era tragedy to race for India.", Achievement: "Commonwealth Games gold, 1958; Padma Shri", BirthYear: 1929, Field: "Athletics", Region: "punjab", Nationality: "Indian", PhotoQuery: "milkha singh runner portrait", WikiURL: "https://en.wikipedia.org/wiki/Milkha_Singh"},
			{ID: "pp-005", Name: "Kalpana Chawla", Title: "Astronaut", Description: "First woman of Indian origin in space, raised in Karnal.", Achievement: "Flew two Space Shuttle missions", BirthYear: 1962, Field: "Space Exploration", Region: "punjab", Nationality: "Indian-American", PhotoQuery: "kalpana chawla astronaut portrait", WikiURL: "https://en.wikipedia.org/wiki/Kalpana_Chawla"},
			{ID: "pp-006", Name: "Bhai Vir Singh", Title: "Scholar and Poet", Description: "Father of modern Punjabi literature and the Singh Sabha renaissance.", Achievement: "Padma Bhushan, 1956", BirthYear: 1872, Field: "Literature", Region: "punjab", Nationality: "Indian", PhotoQuery: "bhai vir singh scholar portrait", WikiURL: "https://en.wikipedia.org/wiki/Vir_Singh_(writer)"},
		},
	}
}
