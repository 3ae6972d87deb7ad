package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/delarsify/sanjeevani/internal/audit"
	"github.com/delarsify/sanjeevani/internal/auth"
	"github.com/delarsify/sanjeevani/internal/posts"
	"github.com/delarsify/sanjeevani/internal/progress"
	"github.com/delarsify/sanjeevani/internal/session"
)

// seedFile is the YAML layout accepted by `sanjeevani seed`.
type seedFile struct {
	Posts []seedPost `yaml:"posts"`
}

type seedPost struct {
	Author string `yaml:"author"`
	Email  string `yaml:"email"`
	Body   string `yaml:"body"`
}

// parseSeed decodes and checks a seed file. Every post needs a valid email
// and a non-empty body.
func parseSeed(r io.Reader) ([]seedPost, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding seed file: %w", err)
	}
	for i, p := range f.Posts {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			return nil, fmt.Errorf("post %d: invalid email %q", i+1, p.Email)
		}
		if strings.TrimSpace(p.Body) == "" {
			return nil, fmt.Errorf("post %d: body is empty", i+1)
		}
		f.Posts[i].Email = strings.ToLower(strings.TrimSpace(p.Email))
		f.Posts[i].Author = strings.TrimSpace(p.Author)
	}
	return f.Posts, nil
}

var seedCmd = &cobra.Command{
	Use:   "seed <file.yml>",
	Short: "Load community posts from a YAML file",
	Long: `Creates one post per entry in the YAML file. Authors are created as
email users when they do not exist yet.

  posts:
    - author: Asha
      email: asha@example.org
      body: Morning walk group meets at 6am.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		entries, err := parseSeed(f)
		f.Close()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "Nothing to seed.")
			return nil
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		users := auth.NewStore(database)
		svc := posts.NewService(posts.NewStore(database), posts.NewFeed(), audit.NewStore(database))

		n, err := seedPosts(cmd.Context(), users, svc, entries, progress.NewReporter("Seeding posts"))
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Seeded %d posts.\n", n)
		return nil
	},
}

// seedPosts creates every entry's author, if needed, and post.
func seedPosts(ctx context.Context, users *auth.Store, svc *posts.Service, entries []seedPost, reporter progress.Reporter) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logrus.WithField("component", "cmd.seed")

	reporter.Start(len(entries))
	defer reporter.Finish()

	created := 0
	for i, e := range entries {
		user, err := users.UpsertUser(ctx, e.Email, e.Author, auth.ProviderEmail)
		if err != nil {
			return created, fmt.Errorf("post %d: %w", i+1, err)
		}
		author := session.Session{UserID: user.ID, Email: user.Email, DisplayName: user.DisplayName}
		p, err := svc.Create(ctx, author, e.Body)
		if err != nil {
			return created, fmt.Errorf("post %d: %w", i+1, err)
		}
		created++
		log.WithFields(logrus.Fields{"post_id": p.ID, "author": p.Author}).Debug("seeded post")
		reporter.Update(i+1, e.Email)
	}
	return created, nil
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
