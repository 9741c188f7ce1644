package entity

import "time"

const (
	MinScore = 1
	MaxScore = 10
)

// Review is unique per (title, author). Authors are detached, not cascaded,
// when their account is removed.
type Review struct {
	ID       uint      `gorm:"primaryKey"`
	TitleID  uint      `gorm:"not null;uniqueIndex:idx_review_title_author,priority:1"`
	Title    Title     `gorm:"constraint:OnDelete:CASCADE"`
	AuthorID *uint     `gorm:"uniqueIndex:idx_review_title_author,priority:2"`
	Author   *User     `gorm:"constraint:OnDelete:SET NULL"`
	Text     string    `gorm:"type:text;not null"`
	Score    int       `gorm:"not null;check:chk_reviews_score,score >= 1 AND score <= 10"`
	PubDate  time.Time `gorm:"autoCreateTime;index"`
}

type Comment struct {
	ID       uint      `gorm:"primaryKey"`
	ReviewID uint      `gorm:"not null;index"`
	Review   Review    `gorm:"constraint:OnDelete:CASCADE"`
	AuthorID *uint     `gorm:"index"`
	Author   *User     `gorm:"constraint:OnDelete:SET NULL"`
	Text     string    `gorm:"type:text;not null"`
	PubDate  time.Time `gorm:"autoCreateTime;index"`
}
