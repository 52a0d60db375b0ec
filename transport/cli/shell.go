package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/rocketscienceinc/tictactoe-bot/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-bot/internal/entity"
)

var errExit = errors.New("exit")

type uMatch interface {
	NewMatch(ctx context.Context, humanMark string) (*entity.Match, error)
	MakeHumanMove(ctx context.Context, id string, cell int) (*entity.Match, error)
	MakeBotMove(ctx context.Context, id string) (*entity.Match, int, error)
	Hint(ctx context.Context, id string) (int, error)
	Scores(ctx context.Context, id string) (map[int]float64, error)
	AbandonMatch(ctx context.Context, id string) error
}

type Options struct {
	Prompt      string
	HistoryFile string
	// HumanMark is used by "new" without an argument.
	HumanMark string
	BotDelay  time.Duration
}

type handlerFunc func(ctx context.Context, args []string) error

// Shell is the terminal front end. It owns the current match snapshot and lets the bot move
// whenever it is the bot's turn after a command.
type Shell struct {
	logger *slog.Logger
	uMatch uMatch
	opts   Options

	out   io.Writer
	match *entity.Match

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, uMatch uMatch, opts Options) *Shell {
	shell := &Shell{
		logger: logger.With("component", "shell"),
		uMatch: uMatch,
		opts:   opts,
		out:    os.Stdout,

		handlers: make(map[string]handlerFunc),
	}

	shell.handlers["new"] = shell.handleNew
	shell.handlers["hint"] = shell.handleHint
	shell.handlers["scores"] = shell.handleScores
	shell.handlers["board"] = shell.handleBoard
	shell.handlers["help"] = shell.handleHelp
	shell.handlers["quit"] = shell.handleQuit
	shell.handlers["exit"] = shell.handleQuit

	return shell
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// Run - reads commands until quit, EOF or ctx is canceled.
func (that *Shell) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	l, err := readline.NewEx(&readline.Config{
		Prompt:              that.opts.Prompt,
		HistoryFile:         that.opts.HistoryFile,
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return fmt.Errorf("failed to start readline: %w", err)
	}
	defer l.Close()

	that.out = l.Stdout()

	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()

	that.println("Tic-tac-toe against an exhaustive-search bot. Type 'help' for commands.")

	if err = that.Execute(ctx, "new"); err != nil {
		return fmt.Errorf("failed to start match: %w", err)
	}

	for {
		line, err := l.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				break
			}
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Error("failed to read line", "error", err)
			}
			break
		}

		err = that.Execute(ctx, line)
		if errors.Is(err, errExit) {
			break
		}
		if err != nil {
			that.println("error: " + err.Error())
		}
	}

	that.abandon(context.WithoutCancel(ctx))

	return nil
}

// Execute - runs a single command line. A bare cell index places the human's mark.
func (that *Shell) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	command, args := strings.ToLower(fields[0]), fields[1:]

	var err error
	if cell, convErr := strconv.Atoi(command); convErr == nil {
		err = that.handleMove(ctx, cell)
	} else if handler, ok := that.handlers[command]; ok {
		err = handler(ctx, args)
	} else {
		return fmt.Errorf("unknown command %q, type 'help'", command)
	}

	if err != nil {
		return err
	}

	return that.playBot(ctx)
}

func (that *Shell) handleNew(ctx context.Context, args []string) error {
	humanMark := that.opts.HumanMark
	if len(args) > 0 {
		humanMark = args[0]
	}

	that.abandon(ctx)

	match, err := that.uMatch.NewMatch(ctx, humanMark)
	if err != nil {
		return fmt.Errorf("failed to start a new match: %w", err)
	}

	that.match = match
	that.println(fmt.Sprintf("New match: you play %s, the bot plays %s. X moves first.", match.HumanMark, match.BotMark))

	if match.IsHumanTurn() {
		that.printBoard()
	}

	return nil
}

func (that *Shell) handleMove(ctx context.Context, cell int) error {
	if err := that.requireActiveMatch(); err != nil {
		return err
	}

	match, err := that.uMatch.MakeHumanMove(ctx, that.match.ID, cell)
	if err != nil {
		return fmt.Errorf("cannot play %d: %w", cell, err)
	}

	that.match = match
	that.printBoard()

	return nil
}

func (that *Shell) handleHint(ctx context.Context, _ []string) error {
	if err := that.requireActiveMatch(); err != nil {
		return err
	}

	cell, err := that.uMatch.Hint(ctx, that.match.ID)
	if err != nil {
		return fmt.Errorf("failed to get hint: %w", err)
	}

	that.println(fmt.Sprintf("hint: play %d", cell))

	return nil
}

func (that *Shell) handleScores(ctx context.Context, _ []string) error {
	if err := that.requireActiveMatch(); err != nil {
		return err
	}

	scores, err := that.uMatch.Scores(ctx, that.match.ID)
	if err != nil {
		return fmt.Errorf("failed to score moves: %w", err)
	}

	cells := make([]int, 0, len(scores))
	for cell := range scores {
		cells = append(cells, cell)
	}
	sort.Ints(cells)

	for _, cell := range cells {
		that.println(fmt.Sprintf("%d: %.4f", cell, scores[cell]))
	}

	return nil
}

func (that *Shell) handleBoard(_ context.Context, _ []string) error {
	if that.match == nil {
		return apperror.ErrMatchNotFound
	}

	that.printBoard()

	return nil
}

func (that *Shell) handleHelp(_ context.Context, _ []string) error {
	that.println(`Commands:
  0-8        place your mark on a cell (cells are numbered row by row)
  new [x|o]  start a new match, optionally choosing your mark
  hint       show the move the bot would play for you
  scores     show the bot's score for every move of the side to play
  board      show the board
  help       show this message
  quit       leave the game`)

	return nil
}

func (that *Shell) handleQuit(_ context.Context, _ []string) error {
	return errExit
}

// playBot - lets the bot move while it has the turn, pausing first so the reply is readable.
func (that *Shell) playBot(ctx context.Context) error {
	for that.match != nil && that.match.IsBotTurn() {
		that.println("Bot is thinking...")

		if err := that.wait(ctx, that.opts.BotDelay); err != nil {
			return err
		}

		match, cell, err := that.uMatch.MakeBotMove(ctx, that.match.ID)
		if err != nil {
			return fmt.Errorf("bot failed to move: %w", err)
		}

		that.match = match
		that.println(fmt.Sprintf("Bot plays %d", cell))
		that.printBoard()
	}

	return nil
}

func (that *Shell) wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("bot move canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (that *Shell) requireActiveMatch() error {
	if that.match == nil {
		return fmt.Errorf("%w: type 'new' to start", apperror.ErrMatchNotFound)
	}

	if that.match.IsFinished() {
		return fmt.Errorf("%w: type 'new' to play again", apperror.ErrGameFinished)
	}

	return nil
}

// abandon drops the current match from storage if it is still running.
func (that *Shell) abandon(ctx context.Context) {
	if that.match == nil || that.match.IsFinished() {
		return
	}

	if err := that.uMatch.AbandonMatch(ctx, that.match.ID); err != nil {
		that.logger.Warn("failed to abandon match", "matchID", that.match.ID, "error", err)
	}
}

func (that *Shell) printBoard() {
	that.println(that.match.Board.String())

	status := that.match.Status()
	switch {
	case status.Outcome == entity.Won && status.Winner == that.match.HumanMark:
		that.println(status.String() + ". You won!")
	case status.Outcome == entity.Won:
		that.println(status.String() + ". The bot won.")
	case status.Outcome == entity.Draw:
		that.println("Draw.")
	case that.match.IsHumanTurn():
		that.println(fmt.Sprintf("Your turn (%s).", that.match.HumanMark))
	}
}

func (that *Shell) println(msg string) {
	_, _ = io.WriteString(that.out, msg+"\n")
}
