package relation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/babysqueel/query/schema"
)

type blog struct {
	author  *schema.Model
	post    *schema.Model
	comment *schema.Model
	picture *schema.Model
}

func newBlog(t testing.TB) blog {
	t.Helper()
	b := blog{
		author: schema.NewModel("Author").
			Columns("id", "name").
			HasMany("posts", "Post", "author_id"),
		post: schema.NewModel("Post").
			Columns("id", "title", "author_id", "published").
			BelongsTo("author", "Author", "author_id").
			HasMany("comments", "Comment", "post_id").
			HasManyAs("pictures", "Picture", "imageable"),
		comment: schema.NewModel("Comment").
			Columns("id", "post_id", "body").
			BelongsTo("post", "Post", "post_id"),
		picture: schema.NewModel("Picture").
			Columns("id", "imageable_id", "imageable_type").
			PolymorphicBelongsTo("imageable"),
	}
	_, err := schema.NewRegistry(b.author, b.post, b.comment, b.picture)
	require.NoError(t, err)
	return b
}

func mustSQL(t testing.TB, r *Relation) string {
	t.Helper()
	sql, err := r.ToSQL()
	require.NoError(t, err)
	return sql
}
