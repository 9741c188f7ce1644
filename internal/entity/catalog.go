package entity

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"size:256;not null;index" json:"name"`
	Slug string `gorm:"size:50;uniqueIndex;not null" json:"slug"`
}

type Genre struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"size:256;not null;index" json:"name"`
	Slug string `gorm:"size:50;uniqueIndex;not null" json:"slug"`
}

// TitleGenre is the join table between titles and genres. Rows go away with
// either side.
type TitleGenre struct {
	TitleID uint  `gorm:"primaryKey"`
	Title   Title `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	GenreID uint  `gorm:"primaryKey"`
	Genre   Genre `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type Title struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:256;not null;index" json:"name"`
	Year        int       `gorm:"not null;index" json:"year"`
	Description *string   `gorm:"type:text" json:"description"`
	CategoryID  *uint     `json:"-"`
	Category    *Category `gorm:"constraint:OnDelete:SET NULL" json:"category"`
	Genres      []Genre   `gorm:"many2many:title_genres" json:"genre"`

	// Rating is filled by the read queries with AVG(reviews.score); it has no column.
	Rating *float64 `gorm:"->;-:migration" json:"rating"`
}
