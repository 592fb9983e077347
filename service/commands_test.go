package service

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"yatube/app/models"
	"yatube/app/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) string {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("MEDIA_ROOT", t.TempDir())
	return filepath.Join(t.TempDir(), "badger")
}

// run executes the CLI with input on stdin and returns stdout and the error.
func run(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func seed(t *testing.T, dbPath string, fn func(repo *repositories.Repository)) {
	t.Helper()
	repo, err := repositories.NewRepository(dbPath, nil)
	require.NoError(t, err)
	defer repo.Close()
	fn(repo)
}

func TestUnknownCommand(t *testing.T) {
	_, err := run(t, "", "bogus")
	assert.Error(t, err)
	assert.Equal(t, 1, Execute([]string{"bogus"}))
}

func TestInit(t *testing.T) {
	dbPath := setupTestDB(t)

	out, err := run(t, "", "--db", dbPath, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Database initialized successfully")
	assert.True(t, dbExists(dbPath))

	out, err = run(t, "", "--db", dbPath, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Database already exists")
}

func TestClean(t *testing.T) {
	tests := []struct {
		name       string
		setup      bool
		input      string
		args       []string
		wantOutput string
		wantExists bool
	}{
		{"missing database", false, "", nil, "Database is already clean", false},
		{"cancelled", true, "n\n", nil, "Operation cancelled", true},
		{"confirmed", true, "y\n", nil, "Database cleaned successfully", false},
		{"yes flag", true, "", []string{"--yes"}, "Database cleaned successfully", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := setupTestDB(t)
			if tt.setup {
				_, err := run(t, "", "--db", dbPath, "init")
				require.NoError(t, err)
			}
			args := append([]string{"--db", dbPath, "clean"}, tt.args...)
			out, err := run(t, tt.input, args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.wantOutput)
			_, statErr := os.Stat(dbPath)
			assert.Equal(t, tt.wantExists, statErr == nil)
		})
	}
}

func TestBackupAndRestore(t *testing.T) {
	dbPath := setupTestDB(t)
	backupDir := filepath.Join(t.TempDir(), "backups")

	out, err := run(t, "", "--db", dbPath, "backup", "--dir", backupDir)
	require.NoError(t, err)
	assert.Contains(t, out, "No database exists to backup")

	seed(t, dbPath, func(repo *repositories.Repository) {
		u := &models.User{Username: "leo"}
		u.BeforeCreate()
		require.NoError(t, repo.Users.Create(u))
		p := &models.Post{Text: "kept", AuthorID: u.ID}
		p.BeforeCreate()
		require.NoError(t, repo.Posts.Create(p))
	})

	out, err = run(t, "", "--db", dbPath, "backup", "--dir", backupDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Database backed up successfully")
	files, err := filepath.Glob(filepath.Join(backupDir, "backup_*.db"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	_, err = run(t, "", "--db", dbPath, "restore", filepath.Join(backupDir, "missing.db"))
	assert.ErrorContains(t, err, "backup file does not exist")

	out, err = run(t, "n\n", "--db", dbPath, "restore", files[0])
	require.NoError(t, err)
	assert.Contains(t, out, "Operation cancelled")

	restored := setupTestDB(t)
	out, err = run(t, "", "--db", restored, "restore", files[0])
	require.NoError(t, err)
	assert.Contains(t, out, "Database restored successfully")

	seed(t, restored, func(repo *repositories.Repository) {
		posts, err := repo.Posts.List(repositories.PostFilter{}, 10, 0)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "kept", posts[0].Text)
	})
}

func TestGroupCommands(t *testing.T) {
	dbPath := setupTestDB(t)

	out, err := run(t, "", "--db", dbPath, "group", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No groups")

	out, err = run(t, "", "--db", dbPath, "group", "create", "--title", "Cats", "--slug", "cats", "--description", "about cats")
	require.NoError(t, err)
	assert.Contains(t, out, `Group "cats" created`)

	_, err = run(t, "", "--db", dbPath, "group", "create", "--title", "Cats again", "--slug", "cats")
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "", "--db", dbPath, "group", "create", "--title", "Bad", "--slug", "bad slug")
	assert.Error(t, err)

	_, err = run(t, "", "--db", dbPath, "group", "create", "--slug", "no-title")
	assert.Error(t, err)

	out, err = run(t, "", "--db", dbPath, "group", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "cats")
	assert.Contains(t, out, "Cats")

	out, err = run(t, "", "--db", dbPath, "group", "delete", "cats")
	require.NoError(t, err)
	assert.Contains(t, out, `Group "cats" deleted`)

	_, err = run(t, "", "--db", dbPath, "group", "delete", "cats")
	assert.ErrorContains(t, err, "not found")
}

func TestUserDelete(t *testing.T) {
	dbPath := setupTestDB(t)
	seed(t, dbPath, func(repo *repositories.Repository) {
		for _, name := range []string{"leo", "max", "anna"} {
			u := &models.User{Username: name}
			u.BeforeCreate()
			require.NoError(t, repo.Users.Create(u))
		}
		leo, err := repo.Users.GetByUsername("leo")
		require.NoError(t, err)
		maxUser, err := repo.Users.GetByUsername("max")
		require.NoError(t, err)
		_, _, err = repo.Follows.GetOrCreate(leo.ID, maxUser.ID)
		require.NoError(t, err)
	})

	_, err := run(t, "", "--db", dbPath, "user", "delete", "max")
	assert.ErrorContains(t, err, "follow relations")

	out, err := run(t, "", "--db", dbPath, "user", "delete", "anna")
	require.NoError(t, err)
	assert.Contains(t, out, `User "anna" deleted`)

	_, err = run(t, "", "--db", dbPath, "user", "delete", "anna")
	assert.ErrorContains(t, err, "not found")
}

func TestUserList(t *testing.T) {
	dbPath := setupTestDB(t)

	out, err := run(t, "", "--db", dbPath, "user", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No users")

	seed(t, dbPath, func(repo *repositories.Repository) {
		u := &models.User{Username: "leo", FirstName: "Lev", LastName: "Tolstoy"}
		require.NoError(t, repo.Users.Create(u))
		require.NoError(t, repo.Posts.Create(&models.Post{Text: "war", AuthorID: u.ID}))
		require.NoError(t, repo.Users.Create(&models.User{Username: "анна"}))
	})

	out, err = run(t, "", "--db", dbPath, "user", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "USERNAME")
	assert.Contains(t, out, "Lev Tolstoy")
	assert.Contains(t, out, "анна")
}

func TestPostAndCommentModeration(t *testing.T) {
	dbPath := setupTestDB(t)
	var postID, commentID int
	seed(t, dbPath, func(repo *repositories.Repository) {
		u := &models.User{Username: "leo"}
		require.NoError(t, repo.Users.Create(u))
		p := &models.Post{Text: "to be moderated", AuthorID: u.ID}
		require.NoError(t, repo.Posts.Create(p))
		c := &models.Comment{PostID: p.ID, AuthorID: u.ID, Text: "spam   spam\nspam"}
		require.NoError(t, repo.Comments.Create(c))
		postID, commentID = p.ID, c.ID
	})

	out, err := run(t, "", "--db", dbPath, "comment", "list", strconv.Itoa(postID))
	require.NoError(t, err)
	assert.Contains(t, out, "spam spam spam")

	_, err = run(t, "", "--db", dbPath, "comment", "list", "999")
	assert.ErrorContains(t, err, "post 999 not found")

	out, err = run(t, "", "--db", dbPath, "comment", "delete", strconv.Itoa(commentID))
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("Comment %d deleted", commentID))

	out, err = run(t, "", "--db", dbPath, "comment", "list", strconv.Itoa(postID))
	require.NoError(t, err)
	assert.Contains(t, out, "No comments")

	_, err = run(t, "", "--db", dbPath, "comment", "delete", strconv.Itoa(commentID))
	assert.ErrorContains(t, err, "not found")

	_, err = run(t, "", "--db", dbPath, "post", "delete", "abc")
	assert.ErrorContains(t, err, "invalid id")

	out, err = run(t, "", "--db", dbPath, "post", "delete", strconv.Itoa(postID))
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("Post %d deleted", postID))

	_, err = run(t, "", "--db", dbPath, "post", "delete", strconv.Itoa(postID))
	assert.ErrorContains(t, err, "not found")
}
