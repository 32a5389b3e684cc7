package squeel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/babysqueel/query/arel"
	"github.com/satishbabariya/babysqueel/query/relation"
	"github.com/satishbabariya/babysqueel/query/schema"
)

const blogSchema = `
model Author {
  id    Int    @id
  name  String
  posts Post[] @hasMany(foreignKey: "author_id")
}

model Post {
  id        Int       @id
  title     String?
  published Boolean
  author_id Int
  author    Author    @belongsTo(foreignKey: "author_id")
  comments  Comment[] @hasMany(foreignKey: "post_id")
  pictures  Picture[] @hasMany(as: "imageable")
}

model Comment {
  id      Int    @id
  post_id Int
  body    String
  post    Post   @belongsTo(foreignKey: "post_id")
}

model Picture {
  id             Int       @id
  imageable_id   Int
  imageable_type String
  imageable      Imageable @belongsTo(polymorphic: true)
}
`

type blog struct {
	author  *schema.Model
	post    *schema.Model
	comment *schema.Model
	picture *schema.Model
}

func newBlog(t testing.TB) blog {
	t.Helper()
	reg, err := schema.ParseString("blog.prisma", blogSchema)
	require.NoError(t, err)

	var b blog
	for name, dst := range map[string]**schema.Model{
		"Author":  &b.author,
		"Post":    &b.post,
		"Comment": &b.comment,
		"Picture": &b.picture,
	} {
		m, ok := reg.Model(name)
		require.True(t, ok, name)
		*dst = m
	}
	return b
}

// render returns the SQL of e and fails when e carries an error.
func render(t testing.TB, e Expr) string {
	t.Helper()
	require.NoError(t, errOf(e))
	return arel.ToSQL(e.Arel(), arel.Postgres)
}

func renderNode(t testing.TB, v any) string {
	t.Helper()
	n, ok := v.(arel.Node)
	require.True(t, ok, "%T is not an arel node", v)
	return arel.ToSQL(n, arel.Postgres)
}

func record(m *schema.Model, id int64) *relation.Record {
	return relation.NewRecord(m, map[string]any{m.PrimaryKey: id})
}
