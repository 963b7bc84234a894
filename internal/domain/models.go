package domain

import "time"

// Profile - автор постов и комментариев.
type Profile struct {
	ID          string    `json:"id" gorm:"type:varchar(64);primary_key"`
	Username    string    `json:"username" gorm:"type:varchar(64);uniqueIndex;not null"`
	DisplayName string    `json:"display_name,omitempty" gorm:"type:varchar(255)"`
	Bio         string    `json:"bio,omitempty" gorm:"type:text"`
	AvatarURL   string    `json:"avatar_url,omitempty" gorm:"type:text"`
	Points      int       `json:"points" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;default:now()"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null;default:now()"`
}

// Post представляет тред-пост в системе.
type Post struct {
	ID              string    `json:"id" gorm:"type:varchar(64);primary_key"`
	AuthorID        string    `json:"user_id" gorm:"type:varchar(64);not null"`
	Title           string    `json:"title" gorm:"type:varchar(255);not null"`
	Content         string    `json:"content" gorm:"type:text;not null"`
	MarkdownContent string    `json:"markdown_content,omitempty" gorm:"type:text"`
	EmbedURLs       []string  `json:"embed_urls,omitempty" gorm:"serializer:json"`
	IsFeatured      bool      `json:"is_featured" gorm:"not null;default:false"`
	ViewCount       int       `json:"view_count" gorm:"not null;default:0"`
	LikeCount       int       `json:"like_count" gorm:"not null;default:0"`
	CommentCount    int       `json:"comment_count" gorm:"not null;default:0"`
	CreatedAt       time.Time `json:"created_at" gorm:"not null;default:now()"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"not null;default:now()"`
	Author          *Profile  `json:"author,omitempty" gorm:"-"`
}

// Comment представляет узел дерева комментариев.
// Children заполняется только при сборке дерева, в хранилище не пишется.
type Comment struct {
	ID              string     `json:"id" gorm:"type:varchar(64);primary_key"`
	PostID          string     `json:"post_id" gorm:"type:varchar(64);not null;index"`
	AuthorID        string     `json:"user_id" gorm:"type:varchar(64);not null"`
	ParentID        *string    `json:"parent_id,omitempty" gorm:"type:varchar(64);index"`
	Content         string     `json:"content" gorm:"type:varchar(2000);not null"`
	MarkdownContent string     `json:"markdown_content,omitempty" gorm:"type:text"`
	LikeCount       int        `json:"like_count" gorm:"not null;default:0"`
	CreatedAt       time.Time  `json:"created_at" gorm:"not null;default:now()"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"not null;default:now()"`
	Author          *Profile   `json:"author,omitempty" gorm:"-"`
	Children        []*Comment `json:"replies,omitempty" gorm:"-"`
}

// Body возвращает текст для рендеринга: markdown, если он есть.
func (c *Comment) Body() string {
	if c.MarkdownContent != "" {
		return c.MarkdownContent
	}
	return c.Content
}

// Shallow копирует комментарий без ответов.
func (c *Comment) Shallow() *Comment {
	cp := *c
	if c.ParentID != nil {
		p := *c.ParentID
		cp.ParentID = &p
	}
	cp.Children = nil
	return &cp
}

// LikeTarget - вид объекта, который отмечают. Посты и комментарии
// имеют независимые пространства id.
type LikeTarget string

const (
	LikePost    LikeTarget = "post"
	LikeComment LikeTarget = "comment"
)

// Like - отметка "нравится" пользователя на пост или комментарий.
type Like struct {
	TargetType LikeTarget `json:"target_type" gorm:"type:varchar(16);primaryKey"`
	TargetID   string     `json:"target_id" gorm:"type:varchar(64);primaryKey"`
	UserID     string     `json:"user_id" gorm:"type:varchar(64);primaryKey"`
	CreatedAt  time.Time  `json:"created_at" gorm:"not null;default:now()"`
}

// ResourceKind - тип материала в подборке.
type ResourceKind string

const (
	ResourceVideo   ResourceKind = "video"
	ResourceArticle ResourceKind = "article"
	ResourceCode    ResourceKind = "code"
	ResourceGeneric ResourceKind = "resource"
)

// ListItem - один материал подборки.
type ListItem struct {
	ID    string       `json:"id"`
	Title string       `json:"title"`
	URL   string       `json:"url"`
	Kind  ResourceKind `json:"kind"`
}

// List - курируемая подборка учебных материалов.
type List struct {
	ID          string     `json:"id" gorm:"type:varchar(64);primary_key"`
	AuthorID    string     `json:"user_id" gorm:"type:varchar(64);not null"`
	Title       string     `json:"title" gorm:"type:varchar(255);not null"`
	Description string     `json:"description" gorm:"type:text"`
	Tags        []string   `json:"tags,omitempty" gorm:"serializer:json"`
	Items       []ListItem `json:"items,omitempty" gorm:"serializer:json"`
	ViewCount   int        `json:"view_count" gorm:"not null;default:0"`
	LikeCount   int        `json:"like_count" gorm:"not null;default:0"`
	CreatedAt   time.Time  `json:"created_at" gorm:"not null;default:now()"`
	Author      *Profile   `json:"author,omitempty" gorm:"-"`
}

// ItemCount - число материалов в подборке.
func (l *List) ItemCount() int { return len(l.Items) }
