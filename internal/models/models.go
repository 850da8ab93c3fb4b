package models

import "time"

// Coordinate is a visitor position resolved once per session. A nil
// *Coordinate means location is unknown (permission denied, resolver
// unconfigured, provider down) and is a normal case, not an error.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Quote is an immutable corpus entry. Corpus quotes are never mutated after
// load; custom quotes added at runtime live only for the process lifetime.
type Quote struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Author   string `json:"author"`
	Category string `json:"category"`
	Year     int    `json:"year,omitempty"`
	Context  string `json:"context,omitempty"`
	Verified bool   `json:"verified"`
}

// QuoteMetadata is derived on read (word count, reading time, share URL) and
// never stored alongside the corpus entry.
type QuoteMetadata struct {
	WordCount      int    `json:"wordCount"`
	ReadingTimeMin int    `json:"readingTimeMinutes"`
	ShareURL       string `json:"shareUrl"`
}

// EnhancedQuote is a Quote plus its derived metadata.
type EnhancedQuote struct {
	Quote
	Metadata QuoteMetadata `json:"metadata"`
}

// Person is a notable-figure corpus entry. Image is attached at runtime after
// photo resolution; every Person handed to a caller has a non-empty Image,
// falling back to a generated avatar when photo search fails.
type Person struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Achievement string `json:"achievement"`
	BirthYear   int    `json:"birthYear,omitempty"`
	Field       string `json:"field"`
	Region      string `json:"region"`
	Nationality string `json:"nationality"`
	PhotoQuery  string `json:"photoQuery,omitempty"`
	WikiURL     string `json:"wikiUrl,omitempty"`
	Image       string `json:"image,omitempty"`
}

// WeatherReading is one normalized current-conditions result for a city.
// Temperature and FeelsLike are whole-degree Celsius; Condition is lowercased
// free text from the provider.
type WeatherReading struct {
	Location      string    `json:"location"`
	Region        string    `json:"region,omitempty"`
	Country       string    `json:"country,omitempty"`
	Temperature   int       `json:"temperature"`
	Condition     string    `json:"condition"`
	Icon          string    `json:"icon,omitempty"`
	Humidity      int       `json:"humidity"`
	WindSpeed     float64   `json:"windSpeed"`
	WindDirection string    `json:"windDirection,omitempty"`
	FeelsLike     int       `json:"feelsLike"`
	Visibility    float64   `json:"visibility"`
	UVIndex       float64   `json:"uvIndex"`
	LastUpdated   string    `json:"lastUpdated,omitempty"`
	FetchedAt     time.Time `json:"fetchedAt"`
}
