package squeel

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/babysqueel/query/relation"
)

func sqlOf(t *testing.T, q *Query) string {
	t.Helper()
	sql, err := q.ToSQL()
	require.NoError(t, err)
	return sql
}

func TestQueryExplicitMethods(t *testing.T) {
	b := newBlog(t)
	posts := Wrap(relation.New(b.post))
	authors := Wrap(relation.New(b.author))

	commentCount := Wrap(relation.New(b.comment), WithCompat()).
		WhereHas(func(d *DSL) any {
			return d.Attr("post_id").Eq(d.Get("posts").(*FuzzyAttribute).Get("id"))
		}).
		Selecting(func(d *DSL) any { return d.Get("COUNT", d.Get("id")) })

	tests := []struct {
		name  string
		query *Query
		want  string
	}{
		{
			name: "where has",
			query: posts.WhereHas(func(d *DSL) any {
				return d.Attr("title").Eq(nil).Or(d.Attr("id").In([]int{1, 2}))
			}),
			want: `SELECT "posts".* FROM "posts" WHERE ("posts"."title" IS NULL OR "posts"."id" IN (1, 2))`,
		},
		{
			name: "where has list",
			query: posts.WhereHas(func(d *DSL) any {
				return []Node{d.Attr("id").Gt(1), d.Attr("published").Eq(false)}
			}),
			want: `SELECT "posts".* FROM "posts" WHERE "posts"."id" > 1 AND "posts"."published" = FALSE`,
		},
		{
			name: "association condition",
			query: posts.WhereHas(func(d *DSL) any {
				return d.Assoc("author").Eq(record(b.author, 3))
			}),
			want: `SELECT "posts".* FROM "posts" WHERE "posts"."author_id" = 3`,
		},
		{
			name: "selecting subquery",
			query: posts.Selecting(func(d *DSL) any {
				return []any{d.Attr("id"), d.Grouping(commentCount).As("comment_count")}
			}),
			want: `SELECT "posts"."id", (SELECT COUNT("comments"."id") FROM "comments" WHERE "comments"."post_id" = "posts"."id") AS "comment_count" FROM "posts"`,
		},
		{
			name: "joining nested associations",
			query: authors.Joining(func(d *DSL) any {
				return d.Assoc("posts").Assoc("comments")
			}),
			want: `SELECT "authors".* FROM "authors" INNER JOIN "posts" ON "posts"."author_id" = "authors"."id"` +
				` INNER JOIN "comments" ON "comments"."post_id" = "posts"."id"`,
		},
		{
			name: "joining back to the root table",
			query: authors.
				Joining(func(d *DSL) any { return d.Assoc("posts").Assoc("author") }).
				WhereHas(func(d *DSL) any { return d.Assoc("posts").Assoc("author").Attr("name").Eq("Ann") }),
			want: `SELECT "authors".* FROM "authors" INNER JOIN "posts" ON "posts"."author_id" = "authors"."id"` +
				` INNER JOIN "authors" "author_posts" ON "author_posts"."id" = "posts"."author_id"` +
				` WHERE "author_posts"."name" = 'Ann'`,
		},
		{
			name: "joining back twice",
			query: posts.Joining(func(d *DSL) any {
				return d.Assoc("author").Assoc("posts").Assoc("author")
			}),
			want: `SELECT "posts".* FROM "posts" INNER JOIN "authors" ON "authors"."id" = "posts"."author_id"` +
				` INNER JOIN "posts" "posts_authors" ON "posts_authors"."author_id" = "authors"."id"` +
				` INNER JOIN "authors" "author_posts" ON "author_posts"."id" = "posts_authors"."author_id"`,
		},
		{
			name: "joining outer alias",
			query: authors.Joining(func(d *DSL) any {
				return d.Assoc("posts").Alias("p").Outer()
			}),
			want: `SELECT "authors".* FROM "authors" LEFT OUTER JOIN "posts" "p" ON "p"."author_id" = "authors"."id"`,
		},
		{
			name: "joining with custom condition",
			query: authors.Joining(func(d *DSL) any {
				posts := d.Assoc("posts")
				return posts.On(posts.Attr("author_id").Eq(d.Attr("id")).And(posts.Attr("published").Eq(true)))
			}),
			want: `SELECT "authors".* FROM "authors" INNER JOIN "posts" ON "posts"."author_id" = "authors"."id" AND "posts"."published" = TRUE`,
		},
		{
			name: "joining polymorphic",
			query: Wrap(relation.New(b.picture)).Joining(func(d *DSL) any {
				return d.Assoc("imageable").Of(b.post)
			}),
			want: `SELECT "pictures".* FROM "pictures" INNER JOIN "posts" ON "posts"."id" = "pictures"."imageable_id"` +
				` AND "pictures"."imageable_type" = 'Post'`,
		},
		{
			name: "joining list and dedup",
			query: posts.Joining(func(d *DSL) any {
				return []any{d.Assoc("author"), d.Assoc("comments").Outer(), "author"}
			}),
			want: `SELECT "posts".* FROM "posts" INNER JOIN "authors" ON "authors"."id" = "posts"."author_id"` +
				` LEFT OUTER JOIN "comments" ON "comments"."post_id" = "posts"."id"`,
		},
		{
			name:  "ordering",
			query: posts.Ordering(func(d *DSL) any { return []Node{d.Attr("title").Desc(), d.Attr("id").Asc()} }),
			want:  `SELECT "posts".* FROM "posts" ORDER BY "posts"."title" DESC, "posts"."id" ASC`,
		},
		{
			name: "reordering",
			query: posts.Order("id").Reordering(func(d *DSL) any {
				return d.Attr("title").Desc()
			}),
			want: `SELECT "posts".* FROM "posts" ORDER BY "posts"."title" DESC`,
		},
		{
			name: "grouping and having",
			query: posts.
				Selecting(func(d *DSL) any { return []any{d.Attr("author_id"), d.Func("COUNT", d.Attr("id")).As("n")} }).
				Grouping(func(d *DSL) any { return d.Attr("author_id") }).
				WhenHaving(func(d *DSL) any { return d.Func("COUNT", d.Attr("id")).Gt(1) }),
			want: `SELECT "posts"."author_id", COUNT("posts"."id") AS "n" FROM "posts" GROUP BY "posts"."author_id" HAVING COUNT("posts"."id") > 1`,
		},
		{
			name: "exists",
			query: authors.WhereHas(func(d *DSL) any {
				return d.Exists(relation.New(b.post).Where("posts.author_id = authors.id"))
			}),
			want: `SELECT "authors".* FROM "authors" WHERE EXISTS(SELECT "posts".* FROM "posts" WHERE (posts.author_id = authors.id))`,
		},
		{
			name:  "plain methods without compat",
			query: posts.Where(map[string]any{"id": 1}).Order("title").Limit(2).Offset(4).Distinct(),
			want:  `SELECT DISTINCT "posts".* FROM "posts" WHERE "posts"."id" = 1 ORDER BY "posts"."title" ASC LIMIT 2 OFFSET 4`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sqlOf(t, tt.query))
		})
	}
}

func TestQueryInterceptsBlocksInCompat(t *testing.T) {
	b := newBlog(t)
	posts := Wrap(relation.New(b.post), WithCompat())

	tests := []struct {
		name  string
		query *Query
		want  string
	}{
		{
			name:  "where",
			query: posts.Where(func(d *DSL) any { return d.Get("title").(*Attribute).Matches("go%") }),
			want:  `SELECT "posts".* FROM "posts" WHERE "posts"."title" ILIKE 'go%'`,
		},
		{
			name:  "where boolean",
			query: posts.Where(func(*DSL) any { return false }),
			want:  `SELECT "posts".* FROM "posts" WHERE 0`,
		},
		{
			name:  "joins",
			query: posts.Joins(func(d *DSL) any { return d.Get("author") }),
			want:  `SELECT "posts".* FROM "posts" INNER JOIN "authors" ON "authors"."id" = "posts"."author_id"`,
		},
		{
			name:  "joins polymorphic shorthand",
			query: Wrap(relation.New(b.picture), WithCompat()).Joins(func(d *DSL) any { return d.Get("imageable", b.post) }),
			want: `SELECT "pictures".* FROM "pictures" INNER JOIN "posts" ON "posts"."id" = "pictures"."imageable_id"` +
				` AND "pictures"."imageable_type" = 'Post'`,
		},
		{
			name:  "select",
			query: posts.Select(func(d *DSL) any { return d.Get("title") }),
			want:  `SELECT "posts"."title" FROM "posts"`,
		},
		{
			name:  "order and reorder",
			query: posts.Order(func(d *DSL) any { return d.Attr("id").Desc() }).Reorder(func(d *DSL) any { return d.Attr("title") }),
			want:  `SELECT "posts".* FROM "posts" ORDER BY "posts"."title"`,
		},
		{
			name: "group and having",
			query: posts.
				Group(func(d *DSL) any { return d.Get("author_id") }).
				Having(func(d *DSL) any { return d.Get("COUNT", d.Get("id")).(Node).Gte(2) }),
			want: `SELECT "posts".* FROM "posts" GROUP BY "posts"."author_id" HAVING COUNT("posts"."id") >= 2`,
		},
		{
			name:  "positional arguments are delegated",
			query: posts.Where("title = ?", "x").Joins("author"),
			want:  `SELECT "posts".* FROM "posts" INNER JOIN "authors" ON "authors"."id" = "posts"."author_id" WHERE (title = 'x')`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sqlOf(t, tt.query))
		})
	}
}

func TestQueryLoadingBlocks(t *testing.T) {
	b := newBlog(t)
	posts := Wrap(relation.New(b.post), WithCompat())

	q := posts.Includes(func(p KeyPath) any { return p.Get("author").Get("posts") })
	assert.Equal(t, []any{map[string]any{"author": map[string]any{"posts": map[string]any{}}}}, q.Relation().IncludesValues())

	q = posts.Includes(func(p KeyPath) any { return []KeyPath{p.Get("comments"), p.Get("author").Get("posts")} })
	assert.Equal(t, []any{
		map[string]any{"comments": map[string]any{}},
		map[string]any{"author": map[string]any{"posts": map[string]any{}}},
	}, q.Relation().IncludesValues())

	q = posts.Includes(func(KeyPath) any { return nil })
	assert.Equal(t, []any{}, q.Relation().IncludesValues())

	q = posts.EagerLoad(func(p KeyPath) any { return p.Get("author").Get("posts") })
	assert.Equal(t, []any{map[string]any{"author": map[string]any{"posts": map[string]any{}}}}, q.Relation().EagerLoadValues())

	q = posts.Preload(func(p KeyPath) any { return p.Get("author").Get("posts") })
	assert.Equal(t, []any{map[string]any{"author": map[string]any{"posts": map[string]any{}}}}, q.Relation().PreloadValues())

	q = Wrap(relation.New(b.post)).Preloading(func(p KeyPath) any { return p.Get("comments") })
	assert.Equal(t, []any{map[string]any{"comments": map[string]any{}}}, q.Relation().PreloadValues())

	q = Wrap(relation.New(b.post)).Including(func(p KeyPath) any { return p.Get("comments") }).
		EagerLoading(func(p KeyPath) any { return p.Get("author") })
	assert.Equal(t, []any{map[string]any{"comments": map[string]any{}}}, q.Relation().IncludesValues())
	assert.Equal(t, []any{map[string]any{"author": map[string]any{}}}, q.Relation().EagerLoadValues())
}

func TestQueryWithoutCompatDelegatesBlocks(t *testing.T) {
	b := newBlog(t)
	q := Wrap(relation.New(b.post)).Where(func(d *DSL) any { return d.Attr("id").Eq(1) })

	_, err := q.ToSQL()
	assert.ErrorIs(t, err, relation.ErrUnsupportedArgument)
	assert.ErrorIs(t, q.Err(), relation.ErrUnsupportedArgument)
}

func TestQueryErrors(t *testing.T) {
	b := newBlog(t)
	posts := Wrap(relation.New(b.post))

	q := posts.WhereHas(func(d *DSL) any { return d.Assoc("author").Eq("bazinga") })
	_, err := q.ToSQL()
	assert.ErrorIs(t, err, ErrAssociationComparison)
	assert.ErrorIs(t, q.Err(), ErrAssociationComparison)

	_, err = q.Load(context.Background(), nil)
	assert.ErrorIs(t, err, ErrAssociationComparison)

	q = Wrap(relation.New(b.picture)).Joining(func(d *DSL) any { return d.Assoc("imageable") })
	_, err = q.ToSQL()
	assert.ErrorIs(t, err, relation.ErrPolymorphicJoin)

	q = posts.Joining(func(d *DSL) any { return d.Table })
	_, err = q.ToSQL()
	assert.ErrorIs(t, err, relation.ErrUnsupportedArgument)

	// The first error wins and later calls keep it.
	q = posts.Selecting(func(d *DSL) any { return d.Get("nope") }).Where(map[string]any{"id": 1})
	_, err = q.ToSQL()
	assert.ErrorIs(t, err, ErrUnresolvedName)
}

func TestQueryIsImmutable(t *testing.T) {
	b := newBlog(t)
	base := Wrap(relation.New(b.post), WithCompat())

	_ = base.Where(func(d *DSL) any { return d.Attr("id").Eq(1) }).Joins("author")

	assert.Equal(t, `SELECT "posts".* FROM "posts"`, sqlOf(t, base))
}

func TestQueryDelegates(t *testing.T) {
	b := newBlog(t)
	posts := Wrap(relation.New(b.post))

	assert.Equal(t,
		`SELECT "posts".* FROM "posts" WHERE NOT ("posts"."id" = 1 AND "posts"."title" = 'a')`,
		sqlOf(t, posts.WhereNot(map[string]any{"title": "a", "id": 1})))
	assert.Equal(t,
		`SELECT "posts".* FROM "posts" LEFT OUTER JOIN "comments" ON "comments"."post_id" = "posts"."id"`,
		sqlOf(t, posts.LeftOuterJoins("comments")))
	assert.Equal(t, `SELECT "posts".* FROM "posts"`,
		sqlOf(t, posts.Where(map[string]any{"id": 1}).Limit(3).Unscoped()))

	published := posts.WhereHas(func(d *DSL) any { return d.Attr("published").Eq(true) })
	assert.Equal(t,
		`SELECT "posts".* FROM "posts" WHERE "posts"."id" = 1 AND "posts"."published" = TRUE`,
		sqlOf(t, posts.Where(map[string]any{"id": 1}).Merge(published)))

	broken := posts.WhereHas(func(d *DSL) any { return d.Get("nope") })
	_, err := posts.Merge(broken).ToSQL()
	assert.ErrorIs(t, err, ErrUnresolvedName)

	_, err = posts.Merge(nil).ToSQL()
	assert.ErrorIs(t, err, relation.ErrUnsupportedArgument)
}

func TestQueryLoad(t *testing.T) {
	b := newBlog(t)
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT "posts".* FROM "posts" WHERE "posts"."published" = TRUE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "author_id"}).
			AddRow(int64(1), "Go", int64(3)).
			AddRow(int64(2), "Rust", int64(3)))
	mock.ExpectQuery(`SELECT "authors".* FROM "authors" WHERE "authors"."id" IN (3)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(3), "Ann"))

	posts, err := Wrap(relation.New(b.post), WithCompat()).
		Where(func(d *DSL) any { return d.Attr("published").Eq(true) }).
		Includes(func(p KeyPath) any { return p.Get("author") }).
		Select(func(r *relation.Record) bool { return r.Get("title") == "Go" }).
		Load(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Ann", posts[0].One("author").Get("name"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
