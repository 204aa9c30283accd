package parish

import "time"

// Settings is the parish contact block shown in the site header and footer.
type Settings struct {
	Name    string `json:"name"`
	Pastor  string `json:"pastor,omitempty"`
	Address string `json:"address"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

// MassTime is one entry of the weekly schedule.
type MassTime struct {
	Day      string `json:"day"`
	Time     string `json:"time"`
	Church   string `json:"church,omitempty"`
	Language string `json:"language,omitempty"`
	Note     string `json:"note,omitempty"`
}

// NewsItem is one parish announcement.
type NewsItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary,omitempty"`
	Body      string    `json:"body,omitempty"`
	Published time.Time `json:"published"`
}

// Sacrament describes how to arrange a sacrament with the parish office.
type Sacrament struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Contact     string `json:"contact,omitempty"`
}

// Church is a worship site served by the parish.
type Church struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Content is everything the home page renders, cached as one unit.
type Content struct {
	Settings   Settings    `json:"settings"`
	MassTimes  []MassTime  `json:"massTimes"`
	News       []NewsItem  `json:"news"`
	Sacraments []Sacrament `json:"sacraments"`
}
