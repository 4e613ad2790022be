package seed

import "time"

// File is the top-level structure of the seed yaml.
//
//	moods: [Angry, Sad, Happy]
//	rants:
//	  - content: "Monday again and it is raining"
//	    mood: angry
//	    alias: "Anonymous #3FA"
//	    likes: 4
//	    created_at: 2026-01-02T15:04:05Z
type File struct {
	Moods []string    `yaml:"moods,omitempty"`
	Rants []RantProps `yaml:"rants"`
}

// RantProps holds one seeded rant.
type RantProps struct {
	Content   string    `yaml:"content"`
	Mood      string    `yaml:"mood,omitempty"`
	Alias     string    `yaml:"alias,omitempty"`
	Likes     int64     `yaml:"likes,omitempty"`
	CreatedAt time.Time `yaml:"created_at,omitempty"`
}
