package store

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/conorfennell/flashmind/internal/domain"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Decks []struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Color       string `yaml:"color"`
		Cards       []struct {
			ID    string   `yaml:"id"`
			Front string   `yaml:"front"`
			Back  string   `yaml:"back"`
			Tags  []string `yaml:"tags"`
		} `yaml:"cards"`
	} `yaml:"decks"`
	Settings struct {
		DarkMode    bool `yaml:"dark_mode"`
		DailyTarget int  `yaml:"daily_target"`
	} `yaml:"settings"`
}

// Seed returns the starter document, timestamped at now.
func Seed(now time.Time) domain.Document {
	doc, err := parseSeed(seedYAML, now)
	if err != nil {
		// seed.yaml is compiled in; failing to parse it is a build defect.
		panic(err)
	}
	return doc
}

func parseSeed(data []byte, now time.Time) (domain.Document, error) {
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return domain.Document{}, fmt.Errorf("failed to parse seed document: %w", err)
	}

	doc := domain.Document{
		Decks: []domain.Deck{},
		Cards: []domain.Card{},
		Logs:  []domain.ReviewLog{},
		Settings: domain.Settings{
			DarkMode:    sf.Settings.DarkMode,
			DailyTarget: sf.Settings.DailyTarget,
		},
	}
	if doc.Settings.DailyTarget <= 0 {
		doc.Settings.DailyTarget = domain.DefaultDailyTarget
	}
	for _, d := range sf.Decks {
		doc.Decks = append(doc.Decks, domain.NewDeck(d.ID, d.Name, d.Description, d.Color, now))
		for _, c := range d.Cards {
			doc.Cards = append(doc.Cards, domain.NewCard(c.ID, d.ID, domain.Draft{Front: c.Front, Back: c.Back, Tags: c.Tags}, now))
		}
	}
	return doc, nil
}
