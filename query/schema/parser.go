package schema

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/iancoleman/strcase"
)

var schemaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "BlockAttr", Pattern: `@@`},
	{Name: "FieldAttr", Pattern: `@`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[{}()\[\]:,?]`},
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type rawSchema struct {
	Models []*rawModel `@@*`
}

type rawModel struct {
	Pos    lexer.Position
	Name   string          `"model" @Ident "{"`
	Fields []*rawField     `@@*`
	Attrs  []*rawBlockAttr `@@* "}"`
}

type rawField struct {
	Pos      lexer.Position
	Name     string          `@Ident`
	Type     string          `@Ident`
	List     bool            `@("[" "]")?`
	Optional bool            `@"?"?`
	Attrs    []*rawFieldAttr `@@*`
}

type rawFieldAttr struct {
	Pos  lexer.Position
	Name string    `"@" @Ident`
	Args []*rawArg `("(" (@@ ("," @@)*)? ")")?`
}

type rawBlockAttr struct {
	Pos  lexer.Position
	Name string    `"@@" @Ident`
	Args []*rawArg `("(" (@@ ("," @@)*)? ")")?`
}

type rawArg struct {
	Key   string    `(@Ident ":")?`
	Value *rawValue `@@`
}

type rawValue struct {
	String *string `  @String`
	Number *string `| @Number`
	Ident  *string `| @Ident`
}

func (v *rawValue) text() string {
	switch {
	case v.String != nil:
		return *v.String
	case v.Number != nil:
		return *v.Number
	case v.Ident != nil:
		return *v.Ident
	}
	return ""
}

var parser = participle.MustBuild[rawSchema](
	participle.Lexer(schemaLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// Parse reads model declarations and returns a linked, validated registry.
//
//	model Post {
//	  id        Int      @id
//	  author_id Int
//	  author    Author   @belongsTo(foreignKey: "author_id")
//	  comments  Comment[] @hasMany
//	  @@map("posts")
//	}
func Parse(filename string, r io.Reader) (*Registry, error) {
	raw, err := parser.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	models := make([]*Model, 0, len(raw.Models))
	for _, rm := range raw.Models {
		m, err := convertModel(rm)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return NewRegistry(models...)
}

// ParseString parses a schema held in memory.
func ParseString(filename, src string) (*Registry, error) {
	return Parse(filename, strings.NewReader(src))
}

func convertModel(rm *rawModel) (*Model, error) {
	m := NewModel(rm.Name)
	primaryKey := ""

	for _, f := range rm.Fields {
		assoc, err := convertAssociation(rm.Name, f)
		if err != nil {
			return nil, err
		}
		if assoc != nil {
			m.AddAssociation(assoc)
			continue
		}
		for _, attr := range f.Attrs {
			switch attr.Name {
			case "id":
				primaryKey = f.Name
			case "default", "unique", "map":
			default:
				return nil, fmt.Errorf("%s: unknown field attribute @%s", attr.Pos, attr.Name)
			}
		}
		m.AddColumn(&Column{Name: f.Name, Type: f.Type, Optional: f.Optional})
	}

	for _, attr := range rm.Attrs {
		switch attr.Name {
		case "map":
			if len(attr.Args) != 1 {
				return nil, fmt.Errorf("%s: @@map expects one argument", attr.Pos)
			}
			m.Table(attr.Args[0].Value.text())
		case "id":
			if len(attr.Args) != 1 {
				return nil, fmt.Errorf("%s: @@id expects one argument", attr.Pos)
			}
			primaryKey = attr.Args[0].Value.text()
		default:
			return nil, fmt.Errorf("%s: unknown block attribute @@%s", attr.Pos, attr.Name)
		}
	}

	if primaryKey != "" {
		m.Key(primaryKey)
	}
	return m, nil
}

func convertAssociation(owner string, f *rawField) (*Association, error) {
	for _, attr := range f.Attrs {
		var kind AssociationKind
		switch attr.Name {
		case "belongsTo":
			kind = BelongsTo
		case "hasMany":
			kind = HasMany
		case "hasOne":
			kind = HasOne
		default:
			continue
		}

		if (kind == HasMany) != f.List {
			return nil, fmt.Errorf("%s: %s: only @hasMany associations take a list type", attr.Pos, f.Name)
		}

		a := &Association{Name: f.Name, Kind: kind, ModelName: f.Type}
		for _, arg := range attr.Args {
			switch arg.Key {
			case "foreignKey":
				a.ForeignKey = arg.Value.text()
			case "foreignType":
				a.ForeignType = arg.Value.text()
			case "as":
				a.As = arg.Value.text()
			case "polymorphic":
				poly, err := strconv.ParseBool(arg.Value.text())
				if err != nil {
					return nil, fmt.Errorf("%s: polymorphic: %w", attr.Pos, err)
				}
				a.Polymorphic = poly
			default:
				return nil, fmt.Errorf("%s: unknown argument %q for @%s", attr.Pos, arg.Key, attr.Name)
			}
		}

		switch {
		case a.ForeignKey != "":
		case kind == BelongsTo:
			a.ForeignKey = f.Name + "_id"
		case a.As != "":
			a.ForeignKey = a.As + "_id"
		default:
			a.ForeignKey = strcase.ToSnake(owner) + "_id"
		}
		if a.Polymorphic {
			a.ModelName = ""
			if a.ForeignType == "" {
				a.ForeignType = f.Name + "_type"
			}
		}
		return a, nil
	}
	return nil, nil
}
