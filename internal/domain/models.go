package domain

import "time"

// User представляет пользователя блога.
type User struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	Name      string      `json:"name" gorm:"type:varchar(100);not null"`
	Email     string      `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	CreatedAt time.Time   `json:"created_at" gorm:"not null"`
	BlogPosts []*BlogPost `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"` // gorm only
	Comments  []*Comment  `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"` // gorm only
}

// BlogPost представляет пост в блоге.
// AuthorName не хранится в таблице, а подтягивается из users при чтении.
type BlogPost struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	Title      string     `json:"title" gorm:"type:varchar(255);not null"`
	Content    string     `json:"content" gorm:"type:text;not null"`
	UserID     uint       `json:"user_id" gorm:"not null;index"`
	CreatedAt  time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"not null"`
	AuthorName *string    `json:"author_name" gorm:"->;-:migration"`
	Comments   []*Comment `json:"-" gorm:"foreignKey:BlogPostID;constraint:OnDelete:CASCADE"` // gorm only
}

// Comment представляет комментарий к посту.
type Comment struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Content       string    `json:"content" gorm:"type:text;not null"`
	UserID        uint      `json:"user_id" gorm:"not null;index"`
	BlogPostID    uint      `json:"blog_post_id" gorm:"not null;index"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null"`
	AuthorName    *string   `json:"author_name" gorm:"->;-:migration"`
	BlogPostTitle *string   `json:"blog_post_title" gorm:"->;-:migration"`
}

// Migration - запись о применённом шаге миграции схемы.
type Migration struct {
	ID         uint      `gorm:"primaryKey"`
	Filename   string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	ExecutedAt time.Time `gorm:"not null"`
}
