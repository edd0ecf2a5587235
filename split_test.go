package bit2_test

import (
	"strings"
	"testing"

	"github.com/ieshan/bit2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{
			name:   "Empty",
			script: "",
			want:   nil,
		},
		{
			name:   "OnlyComment",
			script: "-- just a comment\n",
			want:   nil,
		},
		{
			name:   "OnlyWhitespaceAndComments",
			script: "  \n\t-- a\n   -- b\n\n",
			want:   nil,
		},
		{
			name:   "SingleStatement",
			script: "CREATE TABLE t (id INTEGER);",
			want:   []string{"CREATE TABLE t (id INTEGER)"},
		},
		{
			name:   "SemicolonInSingleQuotes",
			script: "INSERT INTO t VALUES ('a;b');",
			want:   []string{"INSERT INTO t VALUES ('a;b')"},
		},
		{
			name:   "DoubledSingleQuote",
			script: "INSERT INTO t VALUES ('it''s ok');",
			want:   []string{"INSERT INTO t VALUES ('it''s ok')"},
		},
		{
			name:   "DoubledSingleQuoteFollowedBySemicolon",
			script: "INSERT INTO t VALUES ('x'';y'); SELECT 1;",
			want:   []string{"INSERT INTO t VALUES ('x'';y')", "SELECT 1"},
		},
		{
			name:   "SemicolonInDoubleQuotes",
			script: `CREATE TABLE "a;b" (id INTEGER); SELECT 1;`,
			want:   []string{`CREATE TABLE "a;b" (id INTEGER)`, "SELECT 1"},
		},
		{
			name:   "SingleQuoteInsideDoubleQuotes",
			script: `SELECT "it's"; SELECT 2;`,
			want:   []string{`SELECT "it's"`, "SELECT 2"},
		},
		{
			name:   "DoubleQuoteInsideSingleQuotes",
			script: `SELECT 'say "hi;"'; SELECT 2;`,
			want:   []string{`SELECT 'say "hi;"'`, "SELECT 2"},
		},
		{
			name:   "NoTrailingSemicolon",
			script: "A;\nB",
			want:   []string{"A", "B"},
		},
		{
			name:   "CommentLinesBetweenStatements",
			script: "-- c\nA;\n-- c2\nB;",
			want:   []string{"A", "B"},
		},
		{
			name:   "IndentedCommentLine",
			script: "A;\n    -- indented\nB;",
			want:   []string{"A", "B"},
		},
		{
			name:   "TrailingCommentIsKept",
			script: "SELECT 1; -- trailing\nSELECT 2;",
			want:   []string{"SELECT 1", "-- trailing\nSELECT 2"},
		},
		{
			name:   "BlockCommentIsKept",
			script: "/* header */\nSELECT 1;",
			want:   []string{"/* header */\nSELECT 1"},
		},
		{
			name:   "MultiLineStatement",
			script: "CREATE TABLE t (\n  id INTEGER,\n\n  name TEXT\n);",
			want:   []string{"CREATE TABLE t (\n  id INTEGER,\n  name TEXT\n)"},
		},
		{
			name:   "WindowsLineEndings",
			script: "-- c\r\nA;\r\nB\r\n;\r\n",
			want:   []string{"A", "B"},
		},
		{
			name:   "CarriageReturnInsideLiteral",
			script: "INSERT INTO t VALUES ('a\r\nb');\r\nSELECT 1;",
			want:   []string{"INSERT INTO t VALUES ('a\r\nb')", "SELECT 1"},
		},
		{
			name:   "EmptyStatementsSkipped",
			script: ";;  ;\nA;;",
			want:   []string{"A"},
		},
		{
			name:   "UnterminatedQuote",
			script: "SELECT 'abc; SELECT 2;\nSELECT 3;",
			want:   []string{"SELECT 'abc; SELECT 2;\nSELECT 3;"},
		},
		{
			name:   "MultiByteCharacters",
			script: "INSERT INTO t VALUES ('héllo; wörld'); SELECT '日本';",
			want:   []string{"INSERT INTO t VALUES ('héllo; wörld')", "SELECT '日本'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bit2.SplitStatements(tt.script)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitStatements_NoEmptyElements(t *testing.T) {
	inputs := []string{
		"",
		";",
		";;;",
		"\n\n;\n\n",
		"A; ;B;\n;\n",
		"'';\"\";",
		"-- x\n;\n-- y",
		"SELECT 1;\t\t;\r\n",
	}
	for _, in := range inputs {
		for _, stmt := range bit2.SplitStatements(in) {
			assert.NotEmpty(t, strings.TrimSpace(stmt), "input %q", in)
		}
	}
}

func TestSplitStatements_Reserialize(t *testing.T) {
	scripts := []string{
		"CREATE TABLE t (id INTEGER);\nINSERT INTO t VALUES (1);",
		"-- schema\nCREATE TABLE a (name TEXT);\n-- seed\nINSERT INTO a VALUES ('it''s');\nINSERT INTO a VALUES (\"q\")",
		"SELECT 1;SELECT 2;SELECT 3",
	}
	for _, script := range scripts {
		first := bit2.SplitStatements(script)
		require.NotEmpty(t, first)

		second := bit2.SplitStatements(strings.Join(first, ";") + ";")
		assert.Equal(t, first, second)
	}
}

func TestSplitStatements_Deterministic(t *testing.T) {
	script := "A;\n-- c\nB 'x;y';\nC"
	first := bit2.SplitStatements(script)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, bit2.SplitStatements(script))
	}
}

func TestSplitStatements_StatementsAreSubstrings(t *testing.T) {
	scripts := []string{
		"-- seed\r\nINSERT INTO notes (body) VALUES ('line one\r\nline two');\r\nSELECT 1;\r\n",
		"CREATE TABLE t (\r\n  id INTEGER\r\n);",
		"INSERT INTO t VALUES ('a;b');\nINSERT INTO t VALUES ('it''s')",
	}
	for _, script := range scripts {
		for _, stmt := range bit2.SplitStatements(script) {
			assert.Contains(t, script, stmt)
		}
	}
}
