// Package console drives a caption session from a terminal.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/ds124wfegd/imagecaption/internal/entity"
	"github.com/ds124wfegd/imagecaption/internal/service"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const helpText = `Commands:
  open <path>   select an image file
  generate      generate a description for the selected image
  copy          copy the description
  clear         remove the image and description
  state         show the current state
  help          show this help
  exit          quit`

type Shell struct {
	svc       service.CaptionService
	session   string
	out       io.Writer
	maxUpload int64
}

func NewShell(svc service.CaptionService, out io.Writer, maxUpload int64) *Shell {
	return &Shell{svc: svc, session: uuid.NewString(), out: out, maxUpload: maxUpload}
}

// Run reads commands until exit, EOF or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "caption> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("open", readline.PcItemDynamic(listFiles)),
			readline.PcItem("generate"),
			readline.PcItem("copy"),
			readline.PcItem("clear"),
			readline.PcItem("state"),
			readline.PcItem("help"),
			readline.PcItem("exit"),
		),
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = rl.Close()
	}()

	s.out = rl.Stdout()
	fmt.Fprintln(s.out, "Image Description Generator. Type help for commands.")

	for ctx.Err() == nil {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if err != nil { // io.EOF
			return nil
		}

		if quit := s.Execute(ctx, line); quit {
			return nil
		}
	}
	return nil
}

// Execute runs one command line and reports whether the shell should stop.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
	case "open":
		s.open(ctx, arg)
	case "generate", "new":
		fmt.Fprintln(s.out, "Generating Description...")
		state, err := s.svc.GenerateDescription(ctx, s.session, true)
		s.report(state, err)
	case "copy":
		text, err := s.svc.CopyDescription(ctx, s.session)
		if err != nil {
			fmt.Fprintln(s.out, "error:", err)
			return false
		}
		if text == "" {
			fmt.Fprintln(s.out, "Nothing to copy.")
			return false
		}
		fmt.Fprintln(s.out, "Copied.")
	case "clear":
		state, err := s.svc.Reset(ctx, s.session)
		s.report(state, err)
	case "state":
		state, err := s.svc.State(ctx, s.session)
		s.report(state, err)
	case "help", "?":
		fmt.Fprintln(s.out, helpText)
	case "exit", "quit":
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command %q. Type help for commands.\n", cmd)
	}
	return false
}

func (s *Shell) open(ctx context.Context, path string) {
	if path == "" {
		fmt.Fprintln(s.out, "usage: open <path>")
		return
	}

	img, err := readImageFile(path, s.maxUpload)
	if err != nil {
		fmt.Fprintln(s.out, "error:", err)
		return
	}

	state, err := s.svc.SelectImage(ctx, s.session, img)
	s.report(state, err)
}

func (s *Shell) report(state entity.State, err error) {
	if state.Error != "" {
		fmt.Fprintln(s.out, "Error:", state.Error)
	} else if err != nil {
		fmt.Fprintln(s.out, "error:", err)
	}

	if state.SelectedImage == nil {
		fmt.Fprintln(s.out, "No image selected.")
	} else {
		fmt.Fprintf(s.out, "Image: %s (%s, %d bytes)\n",
			state.SelectedImage.Name, state.SelectedImage.MediaType, len(state.SelectedImage.Data))
	}
	if state.Busy {
		fmt.Fprintln(s.out, "Generating Description...")
	}
	if state.Description != "" {
		fmt.Fprintln(s.out, "Description:", state.Description)
	}
}

// readImageFile treats the file extension as the declared media type and
// sniffs the content only when the extension is unknown.
func readImageFile(path string, maxBytes int64) (entity.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return entity.Image{}, err
	}
	if info.IsDir() {
		return entity.Image{}, fmt.Errorf("%s is a directory", path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return entity.Image{}, entity.ErrImageTooLarge
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return entity.Image{}, err
	}

	mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mediaType == "" {
		mediaType = mimetype.Detect(data).String()
	}
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}

	return entity.Image{
		ID:        uuid.NewString(),
		Name:      filepath.Base(path),
		MediaType: mediaType,
		Data:      data,
	}, nil
}

func listFiles(line string) []string {
	_, prefix, _ := strings.Cut(strings.TrimSpace(line), " ")
	matches, _ := filepath.Glob(prefix + "*")
	return matches
}
