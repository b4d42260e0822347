package engagement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sundayezeilo/engagebot/internal/chat"
	"github.com/sundayezeilo/engagebot/internal/errx"
)

// Replies shown to users.
const (
	msgUsage          = "Please send your link like this:\n/%s <link>"
	msgQuotaExceeded  = "You have already submitted a link today. Please try again tomorrow."
	msgSubmitted      = "Link saved: %s"
	msgAckButton      = "Press after you have interacted with this post"
	msgTodayHeader    = "📋 Today's submissions:\n\n"
	msgNoSubmissions  = "Nobody has submitted a link today yet."
	msgAdminsOnly     = "Only admins can use this command."
	msgResetDone      = "All data has been reset."
	msgLeaderHeader   = "💬 Interactions:\n\n"
	msgNoInteractions = "Nobody has interacted yet."
	msgAckRecorded    = "Interaction recorded."
	msgAckDuplicate   = "You have already interacted with this link."
	msgAckUnknown     = "This link is not registered."
	msgAckInvalid     = "This button is no longer valid."
)

// Command names. Each operation answers to an English name and to the name
// the bot was first deployed with.
var (
	SubmitCommands       = []string{"submit", "tweet"}
	TodayCommands        = []string{"today", "liste"}
	ResetCommands        = []string{"reset", "resetveri"}
	InteractionsCommands = []string{"interactions", "etkilesimler"}
	HelpCommands         = []string{"start", "help"}
)

// Handler turns chat updates into service calls and service results into replies.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service Service
	Logger  *slog.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service: cfg.Service,
		logger:  logger,
	}
}

// Register wires every command and the acknowledgement callback into r.
func (h *Handler) Register(r *chat.Router) {
	register := func(names []string, f func(ctx context.Context, w chat.Responder, u *chat.Update) error) {
		for _, name := range names {
			r.HandleFunc(name, f)
		}
	}

	register(SubmitCommands, h.Submit)
	register(TodayCommands, h.ListActive)
	register(ResetCommands, h.Reset)
	register(InteractionsCommands, h.Interactions)
	register(HelpCommands, h.Help)
	r.HandleCallback(chat.HandlerFunc(h.Acknowledge))
}

// Submit handles the submit command.
func (h *Handler) Submit(ctx context.Context, w chat.Responder, u *chat.Update) error {
	sub, err := h.service.Submit(ctx, u.From, u.Args)
	if err != nil {
		return h.handleCommandError(ctx, w, u, err)
	}

	h.logger.InfoContext(ctx, "link submitted",
		"request_id", chat.GetRequestID(ctx),
		"submitter", sub.Submitter,
		"link", sub.URL,
		"date", sub.Date,
	)

	return w.Reply(ctx, fmt.Sprintf(msgSubmitted, sub.URL), chat.Button{
		Text: msgAckButton,
		Data: CallbackData(sub.URL),
	})
}

// ListActive handles the today command.
func (h *Handler) ListActive(ctx context.Context, w chat.Responder, u *chat.Update) error {
	subs, err := h.service.ListActive(ctx)
	if err != nil {
		return h.handleCommandError(ctx, w, u, err)
	}
	return w.Reply(ctx, formatSubmissions(subs))
}

// Reset handles the reset command.
func (h *Handler) Reset(ctx context.Context, w chat.Responder, u *chat.Update) error {
	if err := h.service.Reset(ctx, u.From); err != nil {
		return h.handleCommandError(ctx, w, u, err)
	}

	h.logger.WarnContext(ctx, "all data reset",
		"request_id", chat.GetRequestID(ctx),
		"admin", u.From.Handle(),
		"admin_id", u.From.ID,
	)
	return w.Reply(ctx, msgResetDone)
}

// Interactions handles the interactions command.
func (h *Handler) Interactions(ctx context.Context, w chat.Responder, u *chat.Update) error {
	board, err := h.service.Interactions(ctx, u.From)
	if err != nil {
		return h.handleCommandError(ctx, w, u, err)
	}
	return w.Reply(ctx, formatLeaderboard(board))
}

// Help lists the commands.
func (h *Handler) Help(ctx context.Context, w chat.Responder, u *chat.Update) error {
	var b strings.Builder
	b.WriteString("Commands:\n")
	fmt.Fprintf(&b, "/%s <link> - submit today's link\n", SubmitCommands[0])
	fmt.Fprintf(&b, "/%s - list today's links\n", TodayCommands[0])
	fmt.Fprintf(&b, "/%s - interaction counts (admins)\n", InteractionsCommands[0])
	fmt.Fprintf(&b, "/%s - wipe all data (admins)", ResetCommands[0])
	return w.Reply(ctx, b.String())
}

// Acknowledge handles presses of the button attached to a submission.
func (h *Handler) Acknowledge(ctx context.Context, w chat.Responder, u *chat.Update) error {
	link, status, err := h.service.Acknowledge(ctx, u.From, u.Data)
	if err != nil {
		return h.handleCallbackError(ctx, w, u, err)
	}

	switch status {
	case AckDuplicate:
		return w.Answer(ctx, msgAckDuplicate)
	default:
		h.logger.InfoContext(ctx, "interaction recorded",
			"request_id", chat.GetRequestID(ctx),
			"link", link,
			"user", u.From.Handle(),
		)
		return w.Answer(ctx, msgAckRecorded)
	}
}

// handleCommandError replies to recoverable errors and returns the rest.
func (h *Handler) handleCommandError(ctx context.Context, w chat.Responder, u *chat.Update, err error) error {
	kind := errx.KindOf(err)
	if !kind.Recoverable() {
		return err
	}

	logAttrs := []any{
		"request_id", chat.GetRequestID(ctx),
		"command", u.Command,
		"caller", u.From.Handle(),
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.Invalid:
		h.logger.WarnContext(ctx, "invalid command usage", logAttrs...)
		command := u.Command
		if command == "" {
			command = SubmitCommands[0]
		}
		return w.Reply(ctx, fmt.Sprintf(msgUsage, command))

	case errx.LimitExceeded:
		h.logger.InfoContext(ctx, "submission quota exceeded", logAttrs...)
		return w.Reply(ctx, msgQuotaExceeded)

	case errx.Unauthorized, errx.Forbidden:
		h.logger.WarnContext(ctx, "admin command rejected", append(logAttrs, "caller_id", u.From.ID)...)
		return w.Reply(ctx, msgAdminsOnly)

	default:
		return err
	}
}

// handleCallbackError answers recoverable callback errors and returns the rest.
func (h *Handler) handleCallbackError(ctx context.Context, w chat.Responder, u *chat.Update, err error) error {
	kind := errx.KindOf(err)
	if !kind.Recoverable() {
		return err
	}

	logAttrs := []any{
		"request_id", chat.GetRequestID(ctx),
		"caller", u.From.Handle(),
		"data", u.Data,
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.NotFound:
		h.logger.InfoContext(ctx, "acknowledgement for unknown link", logAttrs...)
		return w.Answer(ctx, msgAckUnknown)

	case errx.Invalid:
		h.logger.WarnContext(ctx, "malformed callback data", logAttrs...)
		return w.Answer(ctx, msgAckInvalid)

	default:
		return err
	}
}

func formatSubmissions(subs []Submission) string {
	if len(subs) == 0 {
		return msgNoSubmissions
	}
	lines := make([]string, 0, len(subs))
	for _, s := range subs {
		lines = append(lines, fmt.Sprintf("👤 @%s -> %s", s.Submitter, s.URL))
	}
	return msgTodayHeader + strings.Join(lines, "\n")
}

func formatLeaderboard(board []Engagement) string {
	if len(board) == 0 {
		return msgNoInteractions
	}
	var b strings.Builder
	b.WriteString(msgLeaderHeader)
	for i, e := range board {
		noun := "interactions"
		if e.Count == 1 {
			noun = "interaction"
		}
		fmt.Fprintf(&b, "%d. @%s: %d %s\n", i+1, e.User, e.Count, noun)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
