package relation

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/babysqueel/query/arel"
)

func TestRelationToSQL(t *testing.T) {
	b := newBlog(t)
	posts := New(b.post)

	tests := []struct {
		name string
		rel  *Relation
		want string
	}{
		{
			name: "all",
			rel:  posts,
			want: `SELECT "posts".* FROM "posts"`,
		},
		{
			name: "hash conditions",
			rel:  posts.Where(map[string]any{"title": nil, "id": []int{1, 2}}),
			want: `SELECT "posts".* FROM "posts" WHERE "posts"."id" IN (1, 2) AND "posts"."title" IS NULL`,
		},
		{
			name: "qualified hash condition",
			rel:  posts.Where(map[string]any{"authors.name": "Ann"}),
			want: `SELECT "posts".* FROM "posts" WHERE "authors"."name" = 'Ann'`,
		},
		{
			name: "raw condition with binds",
			rel:  posts.Where("title = ? AND id IN (?)", "it's", []int{1, 2}),
			want: `SELECT "posts".* FROM "posts" WHERE (title = 'it''s' AND id IN (1, 2))`,
		},
		{
			name: "node condition",
			rel:  posts.Where(arel.Eq(posts.Table().Col("id"), 1)).Where(map[string]any{"published": true}),
			want: `SELECT "posts".* FROM "posts" WHERE "posts"."id" = 1 AND "posts"."published" = TRUE`,
		},
		{
			name: "where not",
			rel:  posts.WhereNot(map[string]any{"title": "a", "id": 1}),
			want: `SELECT "posts".* FROM "posts" WHERE NOT ("posts"."id" = 1 AND "posts"."title" = 'a')`,
		},
		{
			name: "belongs-to join",
			rel:  posts.Joins("author"),
			want: `SELECT "posts".* FROM "posts" INNER JOIN "authors" ON "authors"."id" = "posts"."author_id"`,
		},
		{
			name: "nested join",
			rel:  New(b.author).Joins("posts.comments"),
			want: `SELECT "authors".* FROM "authors" INNER JOIN "posts" ON "posts"."author_id" = "authors"."id"` +
				` INNER JOIN "comments" ON "comments"."post_id" = "posts"."id"`,
		},
		{
			name: "nested join mapping",
			rel:  New(b.author).Joins(map[string]any{"posts": map[string]any{"comments": map[string]any{}}}),
			want: `SELECT "authors".* FROM "authors" INNER JOIN "posts" ON "posts"."author_id" = "authors"."id"` +
				` INNER JOIN "comments" ON "comments"."post_id" = "posts"."id"`,
		},
		{
			name: "polymorphic has-many outer join",
			rel:  posts.LeftOuterJoins("pictures"),
			want: `SELECT "posts".* FROM "posts" LEFT OUTER JOIN "pictures" ON "pictures"."imageable_id" = "posts"."id"` +
				` AND "pictures"."imageable_type" = 'Post'`,
		},
		{
			name: "duplicate joins",
			rel:  posts.Joins("author").Joins([]string{"author"}),
			want: `SELECT "posts".* FROM "posts" INNER JOIN "authors" ON "authors"."id" = "posts"."author_id"`,
		},
		{
			name: "raw join",
			rel:  posts.Joins(`INNER JOIN "tags" ON 1=1`),
			want: `SELECT "posts".* FROM "posts" INNER JOIN "tags" ON 1=1`,
		},
		{
			name: "projections and grouping",
			rel: posts.Select("id", "COUNT(*) AS n").
				Group("author_id").
				Having("COUNT(*) > ?", 1).
				Order("title DESC", "id").
				Limit(3).
				Offset(6),
			want: `SELECT "posts"."id", COUNT(*) AS n FROM "posts" GROUP BY "posts"."author_id" HAVING (COUNT(*) > 1)` +
				` ORDER BY "posts"."title" DESC, "posts"."id" ASC LIMIT 3 OFFSET 6`,
		},
		{
			name: "order mapping",
			rel:  posts.Order(map[string]string{"title": "desc", "id": "asc"}),
			want: `SELECT "posts".* FROM "posts" ORDER BY "posts"."id" ASC, "posts"."title" DESC`,
		},
		{
			name: "reorder",
			rel:  posts.Order("id").Reorder("title"),
			want: `SELECT "posts".* FROM "posts" ORDER BY "posts"."title" ASC`,
		},
		{
			name: "distinct",
			rel:  posts.Select("title").Distinct(),
			want: `SELECT DISTINCT "posts"."title" FROM "posts"`,
		},
		{
			name: "none",
			rel:  posts.Where(map[string]any{"id": 1}).None(),
			want: `SELECT "posts".* FROM "posts" WHERE "posts"."id" = 1 AND 1=0`,
		},
		{
			name: "unscoped",
			rel:  posts.Where(map[string]any{"id": 1}).Unscoped(),
			want: `SELECT "posts".* FROM "posts"`,
		},
		{
			name: "merge",
			rel:  posts.Where(map[string]any{"id": 1}).Merge(posts.Joins("author").Limit(1)),
			want: `SELECT "posts".* FROM "posts" INNER JOIN "authors" ON "authors"."id" = "posts"."author_id" WHERE "posts"."id" = 1 LIMIT 1`,
		},
		{
			name: "subquery condition",
			rel:  New(b.comment).Where(map[string]any{"post_id": posts.Where(map[string]any{"title": nil})}),
			want: `SELECT "comments".* FROM "comments" WHERE "comments"."post_id" IN (SELECT "posts"."id" FROM "posts" WHERE "posts"."title" IS NULL)`,
		},
		{
			name: "eager load joins",
			rel:  posts.EagerLoad("comments"),
			want: `SELECT "posts".* FROM "posts" LEFT OUTER JOIN "comments" ON "comments"."post_id" = "posts"."id"`,
		},
		{
			name: "hash list with nil",
			rel:  posts.Where(map[string]any{"id": []any{1, nil}}),
			want: `SELECT "posts".* FROM "posts" WHERE ("posts"."id" IN (1) OR "posts"."id" IS NULL)`,
		},
		{
			name: "hash list of nil",
			rel:  posts.Where(map[string]any{"title": []any{nil}}),
			want: `SELECT "posts".* FROM "posts" WHERE "posts"."title" IS NULL`,
		},
		{
			name: "where not hash list with nil",
			rel:  posts.WhereNot(map[string]any{"id": []int{1}, "title": []any{"a", nil}}),
			want: `SELECT "posts".* FROM "posts" WHERE NOT ("posts"."id" IN (1) AND ("posts"."title" IN ('a') OR "posts"."title" IS NULL))`,
		},
		{
			name: "eager load back to the root table",
			rel:  posts.EagerLoad("author.posts"),
			want: `SELECT "posts".* FROM "posts" LEFT OUTER JOIN "authors" ON "authors"."id" = "posts"."author_id"` +
				` LEFT OUTER JOIN "posts" "posts_authors" ON "posts_authors"."author_id" = "authors"."id"`,
		},
		{
			name: "joins back to the root table",
			rel:  New(b.author).Joins("posts.author").Joins("posts.author"),
			want: `SELECT "authors".* FROM "authors" INNER JOIN "posts" ON "posts"."author_id" = "authors"."id"` +
				` INNER JOIN "authors" "author_posts" ON "author_posts"."id" = "posts"."author_id"`,
		},
		{
			name: "eager load next to an inner join",
			rel:  posts.Joins("author").EagerLoad("author"),
			want: `SELECT "posts".* FROM "posts" INNER JOIN "authors" ON "authors"."id" = "posts"."author_id"` +
				` LEFT OUTER JOIN "authors" "author_posts" ON "author_posts"."id" = "posts"."author_id"`,
		},
		{
			name: "includes do not join",
			rel:  posts.Includes("comments").Preload("author"),
			want: `SELECT "posts".* FROM "posts"`,
		},
		{
			name: "mysql",
			rel:  New(b.post, WithDialect(arel.MySQL)).Where(map[string]any{"published": true}),
			want: "SELECT `posts`.* FROM `posts` WHERE `posts`.`published` = TRUE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustSQL(t, tt.rel))
		})
	}
}

func TestRelationErrors(t *testing.T) {
	b := newBlog(t)
	posts := New(b.post)

	tests := []struct {
		name string
		rel  *Relation
		is   error
	}{
		{"too few binds", posts.Where("id = ? AND title = ?", 1), ErrBindVariables},
		{"too many binds", posts.Where("id = ?", 1, 2), ErrBindVariables},
		{"unsupported where", posts.Where(func() {}), ErrUnsupportedArgument},
		{"unsupported select", posts.Select(42), ErrUnsupportedArgument},
		{"unknown association", posts.Joins("reviews"), ErrUnknownAssociation},
		{"polymorphic join", New(b.picture).Joins("imageable"), ErrPolymorphicJoin},
		{"unknown eager load", posts.EagerLoad("reviews"), ErrUnknownAssociation},
		{"bad include value", posts.EagerLoad(42), ErrUnsupportedArgument},
		{"nil merge", posts.Merge(nil), ErrUnsupportedArgument},
		{"nil subquery condition", posts.Where(map[string]any{"id": (*Relation)(nil)}), ErrUnsupportedArgument},
		{"nil subquery bind", posts.Where("id IN (?)", (*Relation)(nil)), ErrUnsupportedArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.rel.ToSQL()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.is)
		})
	}
}

func TestRelationIsImmutable(t *testing.T) {
	b := newBlog(t)
	base := New(b.post).Where(map[string]any{"id": 1})

	_ = base.Where(map[string]any{"title": "x"}).Joins("author").Includes("comments").Order("id")

	assert.Equal(t, `SELECT "posts".* FROM "posts" WHERE "posts"."id" = 1`, mustSQL(t, base))
	assert.Empty(t, base.IncludesValues())
	assert.Empty(t, base.JoinValues())
}

func TestLoadValues(t *testing.T) {
	b := newBlog(t)
	rel := New(b.post).
		Includes(map[string]any{"author": map[string]any{"posts": map[string]any{}}}).
		Includes(nil).
		EagerLoad("comments").
		Preload([]any{"author", "pictures"})

	assert.Equal(t, []any{map[string]any{"author": map[string]any{"posts": map[string]any{}}}}, rel.IncludesValues())
	assert.Equal(t, []any{"comments"}, rel.EagerLoadValues())
	assert.Equal(t, []any{[]any{"author", "pictures"}}, rel.PreloadValues())
}

func TestSubquerySQL(t *testing.T) {
	b := newBlog(t)

	sql, err := New(b.post).Where(map[string]any{"title": nil}).SubquerySQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT "posts"."id" FROM "posts" WHERE "posts"."title" IS NULL`, sql)

	sql, err = New(b.post).Select("title").Limit(3).SubquerySQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT "posts"."title" FROM "posts" LIMIT 3`, sql)

	sql, err = New(b.post).None().SubquerySQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT "posts"."id" FROM "posts" WHERE 1=0`, sql)
}

func TestComplexQueryGolden(t *testing.T) {
	b := newBlog(t)
	posts := New(b.post)
	comments := arel.NewTable("comments")

	rel := posts.
		Joins("author").
		LeftOuterJoins("comments").
		Select("id", &arel.As{Expr: &arel.NamedFunction{Name: "COUNT", Args: []arel.Node{comments.Col("id")}}, Alias: "comment_count"}).
		Where(map[string]any{"published": true}).
		Where("authors.name LIKE ?", "A%").
		Group("id").
		Having(&arel.Binary{Op: arel.OpGt, Left: &arel.NamedFunction{Name: "COUNT", Args: []arel.Node{comments.Col("id")}}, Right: arel.Build(2)}).
		Order(map[string]string{"id": "desc"}).
		Limit(10)

	g := goldie.New(t)
	g.Assert(t, "complex_query", []byte(mustSQL(t, rel)))
}
