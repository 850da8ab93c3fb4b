package quote

import (
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/models"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/region"
)

// Built-in corpus. Entries are read-only after load; custom quotes added at
// runtime are appended to session copies of these slices.

func globalCorpus() []models.Quote {
	return []models.Quote{
		{ID: "gq-001", Text: "Be the change that you wish to see in the world.", Author: "Mahatma Gandhi", Category: "Inspiration", Year: 1913, Context: "On personal responsibility for social change", Verified: true},
		{ID: "gq-002", Text: "It always seems impossible until it's done.", Author: "Nelson Mandela", Category: "Perseverance", Year: 1994, Context: "On the long struggle against apartheid", Verified: true},
		{ID: "gq-003", Text: "You cannot cross the sea merely by standing and staring at the water.", Author: "Rabindranath Tagore", Category: "Action", Year: 1916, Context: "From his lectures on personal endeavour", Verified: true},
		{ID: "gq-004", Text: "The best way to find yourself is to lose yourself in the service of others.", Author: "Mahatma Gandhi", Category: "Service", Year: 1930, Verified: true},
		{ID: "gq-005", Text: "Arise, awake, and stop not till the goal is reached.", Author: "Swami Vivekananda", Category: "Perseverance", Year: 1896, Context: "Popularized in his Lectures from Colombo to Almora", Verified: true},
		{ID: "gq-006", Text: "Darkness cannot drive out darkness; only light can do that.", Author: "Martin Luther King Jr.", Category: "Courage", Year: 1963, Verified: true},
		{ID: "gq-007", Text: "Live as if you were to die tomorrow. Learn as if you were to live forever.", Author: "Mahatma Gandhi", Category: "Wisdom", Verified: false},
		{ID: "gq-008", Text: "In the midst of winter, I found there was, within me, an invincible summer.", Author: "Albert Camus", Category: "Resilience", Year: 1952, Verified: true},
		{ID: "gq-009", Text: "The future belongs to those who believe in the beauty of their dreams.", Author: "Eleanor Roosevelt", Category: "Inspiration", Verified: false},
		{ID: "gq-010", Text: "Education is the most powerful weapon which you can use to change the world.", Author: "Nelson Mandela", Category: "Education", Year: 1990, Verified: true},
	}
}

func regionalCorpus() map[region.Tag][]models.Quote {
	return map[region.Tag][]models.Quote{
		region.TagPunjab: {
			{ID: "pq-001", Text: "Even kings and emperors with heaps of wealth and vast dominion cannot compare with an ant filled with the love of God.", Author: "Guru Nanak Dev Ji", Category: "Spirituality", Year: 1500, Context: "From the Japji Sahib tradition", Verified: true},
			{ID: "pq-002", Text: "They may kill me, but they cannot kill my ideas. They can crush my body, but they will not be able to crush my spirit.", Author: "Bhagat Singh", Category: "Courage", Year: 1930, Context: "Written from Lahore jail", Verified: true},
			{ID: "pq-003", Text: "Why run to the forest in search of God? He lives in your own heart.", Author: "Guru Tegh Bahadur Ji", Category: "Spirituality", Verified: true},
			{ID: "pq-004", Text: "I will not beg for mercy; mercy is sought by the weak.", Author: "Kartar Singh Sarabha", Category: "Courage", Year: 1915, Verified: false},
			{ID: "pq-005", Text: "I will meet you yet again, how and where I know not.", Author: "Amrita Pritam", Category: "Heritage", Year: 1994, Context: "From Main Tainu Phir Milangi", Verified: true},
			{ID: "pq-006", Text: "Recognize the whole human race as one.", Author: "Guru Gobind Singh Ji", Category: "Unity", Verified: true},
		},
	}
}
