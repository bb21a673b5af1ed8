package app

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mindchat/mindchat/internal/backend"
	"github.com/mindchat/mindchat/internal/config"
	"github.com/mindchat/mindchat/internal/core"
	"github.com/mindchat/mindchat/internal/dispatcher"
	"github.com/mindchat/mindchat/internal/eventbus"
	"github.com/mindchat/mindchat/internal/models"
	"github.com/mindchat/mindchat/ui/styles"
)

// Application manages the complete application lifecycle
type Application struct {
	config     *config.Config
	eventBus   *eventbus.EventBus
	dispatcher *dispatcher.EventDispatcher
	service    *core.ChatService
	model      *AppModel
}

type AppModel struct {
	appModel   models.AppModel
	dispatcher *dispatcher.EventDispatcher
	input      textinput.Model
	thread     viewport.Model
	spinner    spinner.Model
}

func NewApplication(cfg *config.Config) (*Application, error) {
	profile := cfg.Current()
	if err := profile.Validate(); err != nil {
		return nil, errors.Wrapf(err, "profile %q", cfg.ActiveProfile)
	}

	client := backend.NewClient(backend.Options{
		BaseURL:        profile.GetBaseURL(),
		HistoryField:   profile.GetHistoryField(),
		RequestTimeout: profile.GetRequestTimeout(),
		ProbeTimeout:   profile.GetProbeTimeout(),
	})

	eb := eventbus.NewEventBus()
	eb.SetErrorCallback(func(err eventbus.EventBusError) {
		log.Warn().Err(err.Err).Str("operation", err.Operation).Msg("Event bus error")
	})
	disp := dispatcher.NewEventDispatcher(eb)
	chatService := core.NewChatService(profile, client, eb, nil)

	log.Info().
		Str("profile", cfg.ActiveProfile).
		Str("base_url", profile.GetBaseURL()).
		Bool("probe", profile.ProbeEnabled()).
		Str("rollback_policy", profile.GetRollbackPolicy()).
		Msg("Starting chat application")

	return &Application{
		config:     cfg,
		eventBus:   eb,
		dispatcher: disp,
		service:    chatService,
		model:      newAppModel(disp, chatService.Snapshot(), profile.GetSupportResources()),
	}, nil
}

func newAppModel(disp *dispatcher.EventDispatcher, initial eventbus.StateUpdateEvent, resources []string) *AppModel {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 4000
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = styles.LoadingStyle()

	return &AppModel{
		appModel: models.AppModel{
			Session:   initial.Session,
			Readiness: initial.Readiness,
			Probing:   initial.Probing,
			Resources: resources,
		},
		dispatcher: disp,
		input:      input,
		thread:     viewport.New(80, 20),
		spinner:    spin,
	}
}

// Start runs the core service and the terminal UI until the user quits.
func (app *Application) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app.service.Start()

	g, ctx := errgroup.WithContext(ctx)
	p := tea.NewProgram(app.model, tea.WithAltScreen(), tea.WithContext(ctx))
	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		select {
		case <-app.service.Done():
			p.Quit()
		case <-ctx.Done():
		}
		return nil
	})

	return g.Wait()
}

func (app *Application) Stop() {
	app.service.Stop()
	app.eventBus.Close()
	log.Info().Msg("Chat application stopped")
}
