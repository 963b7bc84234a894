// Package seed заполняет хранилище демонстрационными данными.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/UkralStul/threaducate/internal/domain"
	"github.com/UkralStul/threaducate/internal/storage"

	"go.uber.org/zap"
)

const welcomePost = "# Getting Started with Next.js 14 App Router\n\n" +
	"The new App Router in Next.js 14 introduces several powerful features:\n\n" +
	"## Key Features\n\n" +
	"- **Server Components by default** - Better performance and smaller bundle sizes\n" +
	"- **Nested Layouts** - Share UI between routes\n" +
	"- **Loading UI** - Built-in loading states\n" +
	"- **Error Handling** - Error boundaries at route level\n\n" +
	"## Example Code\n\n" +
	"```typescript\n" +
	"// app/layout.tsx\n" +
	"export default function RootLayout({\n" +
	"  children,\n" +
	"}: {\n" +
	"  children: React.ReactNode\n" +
	"}) {\n" +
	"  return (\n" +
	"    <html lang=\"en\">\n" +
	"      <body>{children}</body>\n" +
	"    </html>\n" +
	"  )\n" +
	"}\n" +
	"```\n\n" +
	"## Benefits\n\n" +
	"1. Improved performance\n" +
	"2. Better developer experience\n" +
	"3. More intuitive file structure\n" +
	"4. Enhanced SEO capabilities\n\n" +
	"Check out the [official documentation](https://nextjs.org/docs) for more details!"

// CurrentUserID - профиль, от имени которого действуют запросы без X-User-ID.
const CurrentUserID = "3"

// Result - что было создано.
type Result struct {
	Profiles int
	Posts    int
	Comments int
	Lists    int
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(s string) *string { return &s }

func profiles() []*domain.Profile {
	return []*domain.Profile{
		{ID: "1", Username: "john_doe", DisplayName: "John Doe"},
		{ID: "2", Username: "jane_smith", DisplayName: "Jane Smith"},
		{ID: CurrentUserID, Username: "current_user", DisplayName: "You"},
		{ID: "4", Username: "react_guru", DisplayName: "React Guru"},
		{ID: "5", Username: "dev_mentor", DisplayName: "Dev Mentor"},
	}
}

func posts() []*domain.Post {
	return []*domain.Post{
		{
			ID:        "1",
			AuthorID:  "1",
			Title:     "Getting Started with Next.js 14 App Router",
			Content:   welcomePost,
			EmbedURLs: []string{"https://www.youtube.com/watch?v=gSSsZReIFRk"},
			ViewCount: 125,
			LikeCount: 23,
			CreatedAt: at("2025-07-28T10:00:00Z"),
		},
		{
			ID:        "2",
			AuthorID:  "2",
			Title:     "Building Real-time Features with Supabase",
			Content:   "Learn how to implement real-time functionality using Supabase subscriptions...",
			ViewCount: 90,
			LikeCount: 15,
			CreatedAt: at("2025-07-27T15:30:00Z"),
		},
	}
}

// comments в порядке создания: родитель всегда раньше ответа.
func comments() []*domain.Comment {
	return []*domain.Comment{
		{
			ID:        "1",
			PostID:    "1",
			AuthorID:  "2",
			Content:   "Great post! The App Router really changes the game for Next.js development.",
			LikeCount: 5,
			CreatedAt: at("2025-07-28T11:00:00Z"),
		},
		{
			ID:        "3",
			PostID:    "1",
			AuthorID:  "1",
			ParentID:  ptr("1"),
			Content:   "Thanks! I agree, the new patterns take some getting used to but are worth it.",
			LikeCount: 2,
			CreatedAt: at("2025-07-28T11:30:00Z"),
		},
		{
			ID:        "2",
			PostID:    "1",
			AuthorID:  "3",
			Content:   "How does this compare to the pages directory approach?",
			LikeCount: 3,
			CreatedAt: at("2025-07-28T12:00:00Z"),
		},
	}
}

func lists() []*domain.List {
	return []*domain.List{
		{
			ID:          "1",
			AuthorID:    "4",
			Title:       "React Best Practices 2025",
			Description: "A curated collection of the latest React patterns and best practices",
			Tags:        []string{"react", "javascript", "frontend"},
			Items: []domain.ListItem{
				{ID: "1-1", Title: "React documentation", URL: "https://react.dev/learn", Kind: domain.ResourceArticle},
				{ID: "1-2", Title: "Thinking in React", URL: "https://react.dev/learn/thinking-in-react", Kind: domain.ResourceArticle},
				{ID: "1-3", Title: "React Conf keynote", URL: "https://www.youtube.com/watch?v=T8TZQ6k4SLE", Kind: domain.ResourceVideo},
			},
			ViewCount: 456,
			LikeCount: 67,
			CreatedAt: at("2025-07-25T09:00:00Z"),
		},
		{
			ID:          "2",
			AuthorID:    "5",
			Title:       "Full-Stack Development Resources",
			Description: "Everything you need to become a proficient full-stack developer",
			Tags:        []string{"fullstack", "nodejs", "database"},
			Items: []domain.ListItem{
				{ID: "2-1", Title: "Node.js guides", URL: "https://nodejs.org/en/learn", Kind: domain.ResourceArticle},
				{ID: "2-2", Title: "PostgreSQL tutorial", URL: "https://www.postgresql.org/docs/current/tutorial.html", Kind: domain.ResourceGeneric},
				{ID: "2-3", Title: "Full-stack starter", URL: "https://github.com/vercel/next.js/tree/canary/examples", Kind: domain.ResourceCode},
			},
			ViewCount: 789,
			LikeCount: 124,
			CreatedAt: at("2025-07-24T14:30:00Z"),
		},
	}
}

// Fill записывает демонстрационные данные в хранилище.
// Ничего не делает, если в хранилище уже есть посты.
func Fill(ctx context.Context, s storage.Storage, log *zap.Logger) (Result, error) {
	var res Result

	existing, err := s.GetPosts(ctx)
	if err != nil {
		return res, fmt.Errorf("seed: list posts: %w", err)
	}
	if len(existing) > 0 {
		log.Debug("storage is not empty, skipping seed", zap.Int("posts", len(existing)))
		return res, nil
	}

	for _, p := range profiles() {
		if _, err := s.UpsertProfile(ctx, p); err != nil {
			return res, fmt.Errorf("seed: profile %s: %w", p.Username, err)
		}
		res.Profiles++
	}
	for _, p := range posts() {
		if _, err := s.CreatePost(ctx, p); err != nil {
			return res, fmt.Errorf("seed: post %s: %w", p.ID, err)
		}
		res.Posts++
	}
	for _, c := range comments() {
		c.MarkdownContent = c.Content
		c.UpdatedAt = c.CreatedAt
		if _, err := s.CreateComment(ctx, c); err != nil {
			return res, fmt.Errorf("seed: comment %s: %w", c.ID, err)
		}
		res.Comments++
	}
	for _, l := range lists() {
		if _, err := s.CreateList(ctx, l); err != nil {
			return res, fmt.Errorf("seed: list %s: %w", l.ID, err)
		}
		res.Lists++
	}

	log.Info("mock data filled",
		zap.Int("profiles", res.Profiles),
		zap.Int("posts", res.Posts),
		zap.Int("comments", res.Comments),
		zap.Int("lists", res.Lists))
	return res, nil
}
