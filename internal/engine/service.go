package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/auth"
	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/internal/engine/handlers"
	"github.com/harrisonpepese/aibit-server-sub000/internal/engine/handlers/actions"
	"github.com/harrisonpepese/aibit-server-sub000/internal/engine/handlers/admin"
	"github.com/harrisonpepese/aibit-server-sub000/internal/events"
	"github.com/harrisonpepese/aibit-server-sub000/internal/infrastructure/storage"
	"github.com/harrisonpepese/aibit-server-sub000/internal/movement"
	"github.com/harrisonpepese/aibit-server-sub000/internal/network"
	"github.com/harrisonpepese/aibit-server-sub000/internal/turn"
	"github.com/harrisonpepese/aibit-server-sub000/internal/version"
	"github.com/harrisonpepese/aibit-server-sub000/internal/world"
	"github.com/harrisonpepese/aibit-server-sub000/pkg/api"
	"github.com/harrisonpepese/aibit-server-sub000/pkg/logger"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

// SourceModule - источник событий, которые публикует сам сервис (спавн персонажей)
const SourceModule = "engine"

// PrioritySpawn - появление персонажа обрабатывается раньше обычных действий
const PrioritySpawn = 50

var (
	ErrUnauthenticated = errors.New("connection is not authenticated")
	ErrForbidden       = errors.New("character does not belong to the account")
	ErrNoCharacter     = errors.New("no character selected")
)

// Deps - заменяемые зависимости сервиса. Нулевые значения берутся из конфига.
type Deps struct {
	Validator auth.TokenValidator
	Now       func() time.Time
}

type session struct {
	identity    auth.Identity
	characterID string
}

// GameService связывает шину событий, перемещения, мир и соединения.
// Все хранилища - поля экземпляра, глобального состояния нет.
type GameService struct {
	cfg Config
	now func() time.Time

	Bus      *events.Bus
	Events   *events.Processor
	World    *world.State
	Hub      *network.Hub
	Movement *movement.Pipeline

	eventRepo  *events.Repository
	dispatcher *network.Dispatcher
	adapter    *world.Adapter
	validator  auth.TokenValidator

	handlers map[string]handlers.HandlerFunc

	mu       deadlock.Mutex
	sessions map[string]*session

	lifeMu  sync.Mutex
	running bool
	seeded  bool
	stop    chan struct{}
	done    chan struct{}

	log *logrus.Entry
}

func NewService(cfg Config, deps Deps) *GameService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Validator == nil {
		deps.Validator = auth.NewStaticValidator(cfg.Tokens)
	}

	s := &GameService{
		cfg:       cfg,
		now:       deps.Now,
		Bus:       events.NewBus(cfg.SubscriptionBuffer),
		eventRepo: events.NewRepository(),
		World:     world.NewState(deps.Now),
		Hub:       network.NewHub(cfg.ConnectionBuffer, deps.Now),
		validator: deps.Validator,
		handlers:  make(map[string]handlers.HandlerFunc),
		sessions:  make(map[string]*session),
		log:       logger.Component("engine"),
	}

	// 1. Generic события: очередь -> обработчик -> шина
	s.Events = events.NewProcessor(s.eventRepo, s.Bus, events.ProcessorOptions{
		Interval: cfg.TickInterval,
		Now:      deps.Now,
	})

	// 2. Мир слушает шину и рассылает события клиентам
	s.dispatcher = network.NewDispatcher(s.Hub, s.World)
	s.adapter = world.NewAdapter(s.World, s.dispatcher, deps.Now)
	s.adapter.Attach(s.Bus)

	// 3. Перемещения публикуют результаты в generic шину
	s.Movement = movement.NewPipeline(movement.Options{
		Config:    cfg.MovementPipelineConfig(),
		Publisher: s.Events,
		Occupancy: []movement.OccupancyChecker{world.Obstacles{State: s.World}},
		Now:       deps.Now,
	})

	s.registerHandlers()
	return s
}

func (s *GameService) registerHandlers() {
	s.handlers[api.ActionMove] = handlers.WithPayload(actions.HandleMove)
	s.handlers[api.ActionStop] = handlers.WithPayload(actions.HandleStop)
	s.handlers[api.ActionChat] = handlers.WithPayload(actions.HandleChat)
	s.handlers[api.ActionInteract] = handlers.WithPayload(actions.HandleInteract)
	s.handlers[api.ActionAttack] = handlers.WithPayload(actions.HandleAttack)

	if s.cfg.AllowAdminActions {
		s.handlers[api.ActionTeleport] = handlers.WithPayload(admin.HandleTeleport)
	}
}

func (s *GameService) Config() Config { return s.cfg }

// --- LIFECYCLE ---

// Start загружает seed мира (один раз) и запускает оба процессора и уборщика.
func (s *GameService) Start() error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.running {
		return nil
	}

	if !s.seeded && s.cfg.SeedFile != "" {
		seed, err := world.LoadSeed(s.cfg.SeedFile)
		if err != nil {
			return err
		}
		n, err := seed.Publish(s.Events)
		if err != nil {
			return fmt.Errorf("publish seed: %w", err)
		}
		s.log.WithFields(logrus.Fields{"file": s.cfg.SeedFile, "events": n}).Info("World seed queued")
	}
	s.seeded = true

	s.Events.Start()
	s.Movement.Start()

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.janitor(s.stop, s.done)

	s.running = true
	s.log.Info("Game service started")
	return nil
}

// Stop останавливает процессоры. Если задан archive_dir, журнал мира архивируется.
func (s *GameService) Stop() error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if !s.running {
		return nil
	}
	close(s.stop)
	<-s.done

	s.Movement.Stop()
	s.Events.Stop()
	s.running = false
	s.log.Info("Game service stopped")

	if s.cfg.ArchiveDir == "" {
		return nil
	}
	path, err := s.ArchiveEventLog(s.cfg.ArchiveDir)
	if err != nil {
		return err
	}
	s.log.WithField("path", path).Info("Event log archived")
	return nil
}

func (s *GameService) janitor(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

type SweepStats struct {
	LogEntries       int          `json:"logEntries"`
	InactiveEntities int          `json:"inactiveEntities"`
	Retention        CleanupStats `json:"retention"`
}

// Sweep - один проход уборщика: журнал мира, неактивные сущности трекера, ретеншн.
func (s *GameService) Sweep() SweepStats {
	st := SweepStats{
		LogEntries:       s.World.ClearOlderThanProcessed(s.cfg.EventLogMaxAge),
		InactiveEntities: s.Movement.Tracker().CleanupInactive(s.cfg.InactiveEntityMinutes),
	}
	if s.cfg.RetentionDays > 0 {
		st.Retention = s.CleanupOlderThan(s.cfg.RetentionDays)
	}
	if st.LogEntries+st.InactiveEntities+st.Retention.total() > 0 {
		s.log.WithFields(logrus.Fields{
			"log_entries": st.LogEntries,
			"inactive":    st.InactiveEntities,
			"movements":   st.Retention.Movements,
			"events":      st.Retention.Events,
		}).Debug("Sweep finished")
	}
	return st
}

type CleanupStats struct {
	Movements      int `json:"movements"`
	MovementEvents int `json:"movementEvents"`
	Events         int `json:"events"`
}

func (c CleanupStats) total() int { return c.Movements + c.MovementEvents + c.Events }

// CleanupOlderThan удаляет историю перемещений, события перемещений и generic события старше days дней.
func (s *GameService) CleanupOlderThan(days int) CleanupStats {
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	movements, mevents := s.Movement.DeleteOlderThan(cutoff)
	return CleanupStats{
		Movements:      movements,
		MovementEvents: mevents,
		Events:         s.eventRepo.DeleteOlderThan(cutoff),
	}
}

// ArchiveEventLog пишет текущий журнал мира в dir и возвращает путь файла.
func (s *GameService) ArchiveEventLog(dir string) (string, error) {
	return storage.NewArchiveService(dir, s.now).Save(s.World.EventLog())
}

// --- PUBLISH / MOVEMENT ---

func (s *GameService) PublishEvent(t events.EventType, sourceModule string, payload any, vis domain.Visibility, priority int) (*events.GameEvent, error) {
	return s.Events.Publish(t, sourceModule, payload, vis, priority)
}

func (s *GameService) RequestMovement(req movement.Request) (*movement.Event, error) {
	return s.Movement.RequestMovement(req)
}

func (s *GameService) Teleport(entityID string, target domain.Position, source string) (*movement.Event, error) {
	return s.Movement.Teleport(entityID, target, source)
}

func (s *GameService) Knockback(entityID string, target domain.Position, source string) (*movement.Event, error) {
	return s.Movement.Knockback(entityID, target, source)
}

func (s *GameService) UpdatePosition(entityID string, pos domain.Position, source string) (*movement.Event, error) {
	return s.Movement.UpdatePosition(entityID, pos, source)
}

func (s *GameService) CancelMovement(entityID, reason string) (*movement.Event, error) {
	return s.Movement.CancelMovement(entityID, reason)
}

// CurrentPosition - позиция из трекера перемещений, иначе из мира.
func (s *GameService) CurrentPosition(entityID string) (domain.Position, bool) {
	if pos, ok := s.Movement.Tracker().Position(entityID); ok {
		return pos, true
	}
	if p, err := s.World.GetPlayer(entityID); err == nil {
		return p.Position, true
	}
	if c, err := s.World.GetCreature(entityID); err == nil {
		return c.Position, true
	}
	return domain.Position{}, false
}

// --- QUERIES ---

func (s *GameService) QueryEvents(q events.Query) []*events.GameEvent { return s.eventRepo.Query(q) }

func (s *GameService) GetEvent(id string) (*events.GameEvent, error) { return s.eventRepo.Get(id) }

func (s *GameService) QueryMovementEvents(q movement.Query) []*movement.Event {
	return s.Movement.Events().Query(q)
}

func (s *GameService) GetMovementEvent(id string) (*movement.Event, error) {
	return s.Movement.Events().Get(id)
}

func (s *GameService) MovementHistory(entityID string, limit int) []movement.Movement {
	return s.Movement.History().ByEntity(entityID, limit)
}

// --- SUBSCRIPTIONS ---

func (s *GameService) SubscribeAll() *events.Subscription { return s.Bus.SubscribeAll() }

func (s *GameService) SubscribeByType(t events.EventType) *events.Subscription {
	return s.Bus.SubscribeByType(t)
}

func (s *GameService) SubscribeBySourceModule(module string) *events.Subscription {
	return s.Bus.SubscribeBySourceModule(module)
}

func (s *GameService) SubscribeByEntityVisibility(entityID string) *events.Subscription {
	return s.Bus.SubscribeByEntityVisibility(entityID)
}

func (s *GameService) SubscribeByAreaVisibility(center domain.Position, radius float64) *events.Subscription {
	return s.Bus.SubscribeByAreaVisibility(center, radius)
}

// --- CONNECTIONS ---

// OnConnect регистрирует соединение и кладет в его очередь WELCOME.
func (s *GameService) OnConnect(info network.ConnectionInfo) (network.ClientConnection, <-chan api.ServerResponse) {
	conn, outbox := s.Hub.Register(info)
	build := version.Current()
	s.Hub.SendTo(conn.ID, api.ServerResponse{
		Type:         api.MsgWelcome,
		ConnectionID: conn.ID,
		Data: api.WelcomeData{
			Protocol:       api.ProtocolVersion,
			ServerBuild:    build.Stamp(),
			BuildDate:      build.Date,
			TickIntervalMs: s.cfg.MovementTickInterval.Milliseconds(),
		},
		Timestamp: s.now().UnixMilli(),
	})
	s.log.WithFields(logrus.Fields{"connection_id": conn.ID, "ip": info.IP}).Info("Client connected")
	return conn, outbox
}

// Authenticate проверяет токен и привязывает аккаунт к соединению.
func (s *GameService) Authenticate(ctx context.Context, connID, token string) (auth.Identity, error) {
	if _, err := s.Hub.Get(connID); err != nil {
		return auth.Identity{}, err
	}
	id, err := s.validator.ValidateToken(ctx, token)
	if err != nil {
		s.log.WithField("connection_id", connID).Warn("Login rejected")
		return auth.Identity{}, err
	}
	if err := s.Hub.BindAccount(connID, id.ID); err != nil {
		return auth.Identity{}, err
	}

	s.mu.Lock()
	s.sessions[connID] = &session{identity: id}
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"connection_id": connID, "account_id": id.ID}).Info("Client authenticated")
	return id, nil
}

// OnCharacterSelect привязывает персонажа к соединению.
// Персонаж, которого еще нет в мире, появляется в точке спавна.
func (s *GameService) OnCharacterSelect(connID, characterID string) (world.Player, error) {
	s.mu.Lock()
	sess, ok := s.sessions[connID]
	if !ok {
		s.mu.Unlock()
		return world.Player{}, ErrUnauthenticated
	}
	identity := sess.identity
	s.mu.Unlock()

	if !identity.Owns(characterID) {
		return world.Player{}, fmt.Errorf("%w: %s", ErrForbidden, characterID)
	}
	if err := s.Hub.BindCharacter(connID, characterID); err != nil {
		return world.Player{}, err
	}

	s.mu.Lock()
	sess.characterID = characterID
	s.mu.Unlock()

	player, err := s.World.GetPlayer(characterID)
	switch {
	case domain.IsNotFound(err):
		player = s.spawnPlayer(characterID, identity.ID)
	case err != nil:
		return world.Player{}, err
	case player.AccountID == "":
		player.AccountID = identity.ID
		s.World.AddPlayer(player)
	}

	// Трекер должен знать позицию до первого MOVE
	if _, known := s.Movement.Tracker().Position(characterID); !known {
		s.Movement.Tracker().UpdatePosition(characterID, player.Position)
	}

	s.log.WithFields(logrus.Fields{"connection_id": connID, "entity_id": characterID}).Info("Character selected")
	return player, nil
}

func (s *GameService) spawnPlayer(characterID, accountID string) world.Player {
	player := world.Player{
		ID:        characterID,
		AccountID: accountID,
		Name:      characterID,
		Position:  s.cfg.SpawnPosition,
		Health:    s.cfg.SpawnHealth,
		MaxHealth: s.cfg.SpawnHealth,
		Mana:      s.cfg.SpawnMana,
		MaxMana:   s.cfg.SpawnMana,
	}
	// В мир сразу, чтобы персонаж попадал в AREA рассылки; событие - для остальных
	s.World.AddPlayer(player)

	vis, err := domain.Area(player.Position, s.cfg.BroadcastRadius)
	if err != nil {
		vis = domain.Global()
	}
	if _, err := s.Events.Publish(events.EntitySpawned, SourceModule, events.SpawnPayload{
		EntityID:  player.ID,
		Kind:      events.KindPlayer,
		Name:      player.Name,
		Position:  player.Position,
		Health:    player.Health,
		MaxHealth: player.MaxHealth,
		Mana:      player.Mana,
		MaxMana:   player.MaxMana,
	}, vis, PrioritySpawn); err != nil {
		s.log.WithError(err).WithField("entity_id", characterID).Warn("Failed to publish spawn")
	}
	return player
}

// OnGameAction выполняет игровую команду выбранного персонажа.
func (s *GameService) OnGameAction(connID string, cmd api.ClientCommand) (handlers.Result, error) {
	s.mu.Lock()
	sess, ok := s.sessions[connID]
	var characterID string
	if ok {
		characterID = sess.characterID
	}
	s.mu.Unlock()

	switch {
	case !ok:
		return handlers.Result{}, ErrUnauthenticated
	case characterID == "":
		return handlers.Result{}, ErrNoCharacter
	}

	h, ok := s.handlers[cmd.Action]
	if !ok {
		return handlers.Result{}, domain.Invalid("action", fmt.Sprintf("unknown action %q", cmd.Action))
	}

	player, err := s.World.GetPlayer(characterID)
	if err != nil {
		return handlers.Result{}, err
	}
	pos := player.Position
	if p, ok := s.Movement.Tracker().Position(characterID); ok {
		pos = p
	}

	s.Hub.Touch(connID)
	return h(handlers.Context{
		Service:      s,
		World:        s.World,
		ConnectionID: connID,
		Actor:        player,
		Position:     pos,
	}, cmd.Payload)
}

// OnDisconnect снимает соединение. Персонаж остается в мире.
func (s *GameService) OnDisconnect(connID string) {
	conn, ok := s.Hub.Unregister(connID)

	s.mu.Lock()
	delete(s.sessions, connID)
	s.mu.Unlock()

	if ok {
		s.log.WithFields(logrus.Fields{"connection_id": connID, "entity_id": conn.CharacterID}).Info("Client disconnected")
	}
}

// Session возвращает аккаунт и выбранного персонажа соединения.
func (s *GameService) Session(connID string) (auth.Identity, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[connID]
	if !ok {
		return auth.Identity{}, "", false
	}
	return sess.identity, sess.characterID, true
}

// --- STATS ---

type ServiceStats struct {
	Events           turn.Stats       `json:"events"`
	Movement         turn.Stats       `json:"movement"`
	PendingEvents    int              `json:"pendingEvents"`
	PendingMovements int              `json:"pendingMovements"`
	Bus              events.BusStats  `json:"bus"`
	Hub              network.HubStats `json:"hub"`
	World            world.Stats      `json:"world"`
	TrackedEntities  int              `json:"trackedEntities"`
}

func (s *GameService) Stats() ServiceStats {
	return ServiceStats{
		Events:           s.Events.Stats(),
		Movement:         s.Movement.Stats(),
		PendingEvents:    len(s.Events.Pending()),
		PendingMovements: len(s.Movement.Pending()),
		Bus:              s.Bus.Stats(),
		Hub:              s.Hub.Stats(),
		World:            s.World.Snapshot(),
		TrackedEntities:  s.Movement.Tracker().Len(),
	}
}
