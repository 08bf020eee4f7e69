package models

// StudySettings configures how a study session is assembled and paced
type StudySettings struct {
	WordsPerSession int  `json:"words_per_session" db:"words_per_session"`
	TimePerWord     int  `json:"time_per_word" db:"time_per_word"` // seconds
	AutoAdvance     bool `json:"auto_advance" db:"auto_advance"`
	ShuffleWords    bool `json:"shuffle_words" db:"shuffle_words"`
	UniqueWordsMode bool `json:"unique_words_mode" db:"unique_words_mode"`
}

// DefaultStudySettings returns the settings a new user starts with
func DefaultStudySettings() StudySettings {
	return StudySettings{
		WordsPerSession: 25,
		TimePerWord:     30,
		AutoAdvance:     true,
		ShuffleWords:    true,
		UniqueWordsMode: true,
	}
}
