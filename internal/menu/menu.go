// Package menu runs the numbered terminal menus of the games. Values typed
// by the player are validated; a rejected value is reported and the previous
// one kept.
package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/faults"
	"github.com/ayusman/pianogames/internal/logging"
)

// ErrQuit is returned by Run when the player quits or the input ends.
var ErrQuit = errors.New("menu: quit")

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).
			Border(lipgloss.RoundedBorder()).Padding(0, 1)
	keyStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle = lipgloss.NewStyle().Faint(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Item is one menu entry. Exactly one of Set, Run or Exit gives it meaning:
// Set receives a typed line (or the chosen option), Run is an action, and an
// Exit item ends Run with its Key.
type Item struct {
	Key   string
	Label string
	// Value renders the current setting next to the label.
	Value func() string
	// Prompt is shown before reading the value for Set.
	Prompt string
	// Options lists numbered choices; the chosen entry is passed to Set.
	Options func() ([]string, error)
	Set     func(string) error
	Run     func() error
	Exit    bool
	Quit    bool
}

// Menu is a titled list of items.
type Menu struct {
	Title string
	Items []Item

	in  *LineReader
	out io.Writer
	log *zap.Logger
}

// New creates a menu reading from in and printing to out.
func New(title string, in *LineReader, out io.Writer, logger *zap.Logger, items ...Item) *Menu {
	return &Menu{Title: title, Items: items, in: in, out: out, log: logging.OrNop(logger)}
}

// Run shows the menu until an Exit item is chosen and returns its key. A
// Quit item, the end of input or ctx ending return ErrQuit.
func (m *Menu) Run(ctx context.Context) (string, error) {
	for {
		m.render()
		choice, err := m.readLine(ctx, "Select option: ")
		if err != nil {
			return "", err
		}

		item, ok := m.find(choice)
		if !ok {
			m.fail(faults.Invalid(fmt.Sprintf("no menu option %q", choice)))
			continue
		}
		switch {
		case item.Quit:
			return item.Key, ErrQuit
		case item.Exit:
			return item.Key, nil
		case item.Run != nil:
			if err := item.Run(); err != nil {
				m.fail(err)
			}
		case item.Set != nil:
			if err := m.set(ctx, item); err != nil {
				return "", err
			}
		}
	}
}

// set reads a value for item. Only input errors are returned; a rejected
// value is printed.
func (m *Menu) set(ctx context.Context, item Item) error {
	if item.Options != nil {
		options, err := item.Options()
		if err != nil {
			m.fail(err)
			return nil
		}
		if len(options) == 0 {
			m.fail(faults.Invalid("nothing to choose from"))
			return nil
		}
		for i, o := range options {
			fmt.Fprintf(m.out, " %s %s\n", keyStyle.Render(strconv.Itoa(i)+")"), o)
		}
		line, err := m.readLine(ctx, "Choose number: ")
		if err != nil || line == "" {
			return err
		}
		i, convErr := strconv.Atoi(line)
		if convErr != nil || i < 0 || i >= len(options) {
			m.reject(faults.Invalid(fmt.Sprintf("%q is not one of the numbers shown", line)))
			return nil
		}
		m.apply(item, options[i])
		return nil
	}

	prompt := item.Prompt
	if prompt == "" {
		prompt = item.Label
		if item.Value != nil {
			prompt += " [" + item.Value() + "]"
		}
		prompt += ": "
	}
	line, err := m.readLine(ctx, prompt)
	if err != nil || line == "" {
		return err
	}
	m.apply(item, line)
	return nil
}

func (m *Menu) apply(item Item, value string) {
	if err := item.Set(value); err != nil {
		m.reject(err)
		return
	}
	m.log.Debug("menu value set", zap.String("item", item.Label), zap.String("value", value))
	fmt.Fprintln(m.out, okStyle.Render("✓ "+item.Label+" updated"))
}

func (m *Menu) readLine(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(m.out, prompt)
	line, err := m.in.ReadLine(ctx)
	if err != nil {
		fmt.Fprintln(m.out)
		return "", ErrQuit
	}
	return line, nil
}

func (m *Menu) find(key string) (Item, bool) {
	for _, it := range m.Items {
		if it.Key == key {
			return it, true
		}
	}
	return Item{}, false
}

func (m *Menu) fail(err error) {
	m.log.Debug("menu action failed", zap.Error(err))
	fmt.Fprintln(m.out, errStyle.Render("✗ "+faults.Issue(err)))
}

func (m *Menu) reject(err error) {
	m.log.Debug("menu input rejected", zap.Error(err))
	fmt.Fprintln(m.out, errStyle.Render("✗ "+faults.Issue(err)+"; keeping the previous value"))
}

func (m *Menu) render() {
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, titleStyle.Render(m.Title))
	for _, it := range m.Items {
		line := keyStyle.Render(it.Key+")") + " " + it.Label
		if it.Value != nil {
			line += "  " + valueStyle.Render(it.Value())
		}
		fmt.Fprintln(m.out, line)
	}
}
