package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/avvvet/lottery-services/internal/lottery/models"
	"github.com/avvvet/lottery-services/internal/lottery/service"
	"github.com/avvvet/lottery-services/internal/lottery/store"
)

// MemStore is an in-memory service.Transactor with the same constraint
// semantics as the postgres schema: unique game names, draw foreign keys and
// cascading deletes. Transactions are serialized and work on a copy of the
// state that replaces the original only on commit.
type MemStore struct {
	mu    sync.Mutex
	state memState

	// ids are never handed out twice, even after a rollback
	gameSeq, drawSeq, resultSeq int64

	// Err, when set, fails every transaction before it starts.
	Err error
	Now func() time.Time
}

type memResult struct {
	ID     int64
	DrawID int64
}

type memState struct {
	games   map[int64]models.Game
	draws   map[int64]models.Draw
	results map[int64]memResult
}

func (s memState) clone() memState {
	c := memState{
		games:   make(map[int64]models.Game, len(s.games)),
		draws:   make(map[int64]models.Draw, len(s.draws)),
		results: make(map[int64]memResult, len(s.results)),
	}
	for k, v := range s.games {
		c.games[k] = v
	}
	for k, v := range s.draws {
		c.draws[k] = v
	}
	for k, v := range s.results {
		c.results[k] = v
	}
	return c
}

func NewMemStore() *MemStore {
	return &MemStore{
		state: memState{}.clone(),
		Now:   time.Now,
	}
}

func (m *MemStore) WithinTx(ctx context.Context, fn func(repos service.Repositories) error) error {
	if m.Err != nil {
		return m.Err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(&memRepos{m: m, st: &work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	m.state = work
	return nil
}

// AddResult attaches an opaque result row to a draw.
func (m *MemStore) AddResult(drawID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.draws[drawID]; !ok {
		return 0, fmt.Errorf("%w: results_draw_id_fkey", store.ErrForeignKeyViolation)
	}
	m.resultSeq++
	m.state.results[m.resultSeq] = memResult{ID: m.resultSeq, DrawID: drawID}
	return m.resultSeq, nil
}

// Counts returns the committed row counts of games, draws and results.
func (m *MemStore) Counts() (games, draws, results int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.games), len(m.state.draws), len(m.state.results)
}

// CountsForGame returns committed draws and results that belong to gameID.
func (m *MemStore) CountsForGame(gameID int64) (draws, results int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := map[int64]bool{}
	for _, d := range m.state.draws {
		if d.GameID == gameID {
			ids[d.ID] = true
		}
	}
	for _, r := range m.state.results {
		if ids[r.DrawID] {
			results++
		}
	}
	return len(ids), results
}

// Draw returns the committed draw with that id.
func (m *MemStore) Draw(id int64) (models.Draw, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.state.draws[id]
	return d, ok
}

type memRepos struct {
	m  *MemStore
	st *memState
}

func (r *memRepos) Games() service.GameRepository { return memGames{r} }
func (r *memRepos) Draws() service.DrawRepository { return memDraws{r} }

type memGames struct{ r *memRepos }

func (g memGames) List(ctx context.Context) ([]models.Game, error) {
	games := make([]models.Game, 0, len(g.r.st.games))
	for _, game := range g.r.st.games {
		games = append(games, game)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

func (g memGames) GetByName(ctx context.Context, name string) (*models.Game, error) {
	for _, game := range g.r.st.games {
		if game.Name == name {
			found := game
			return &found, nil
		}
	}
	return nil, nil
}

func (g memGames) GetByID(ctx context.Context, id int64) (*models.Game, error) {
	game, ok := g.r.st.games[id]
	if !ok {
		return nil, nil
	}
	return &game, nil
}

func (g memGames) Create(ctx context.Context, name string, description, image *string) (*models.Game, error) {
	if existing, _ := g.GetByName(ctx, name); existing != nil {
		return nil, fmt.Errorf("failed to create game: %w: games_name_key", store.ErrUniqueViolation)
	}
	g.r.m.gameSeq++
	now := g.r.m.Now()
	game := models.Game{
		ID:          g.r.m.gameSeq,
		Name:        name,
		Description: description,
		Image:       image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	g.r.st.games[game.ID] = game
	return &game, nil
}

func (g memGames) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := g.r.st.games[id]; !ok {
		return false, nil
	}
	delete(g.r.st.games, id)
	for drawID, d := range g.r.st.draws {
		if d.GameID != id {
			continue
		}
		delete(g.r.st.draws, drawID)
		for resultID, res := range g.r.st.results {
			if res.DrawID == drawID {
				delete(g.r.st.results, resultID)
			}
		}
	}
	return true, nil
}

type memDraws struct{ r *memRepos }

func (d memDraws) sorted(keep func(models.Draw) bool) []models.Draw {
	draws := []models.Draw{}
	for _, draw := range d.r.st.draws {
		if keep(draw) {
			draws = append(draws, draw)
		}
	}
	sort.Slice(draws, func(i, j int) bool { return draws[i].ID < draws[j].ID })
	return draws
}

func (d memDraws) List(ctx context.Context) ([]models.Draw, error) {
	return d.sorted(func(models.Draw) bool { return true }), nil
}

func (d memDraws) Create(ctx context.Context, gameID int64, at models.LocalDateTime, image *string) (*models.Draw, error) {
	if _, ok := d.r.st.games[gameID]; !ok {
		return nil, fmt.Errorf("failed to create draw: %w: draws_game_id_fkey", store.ErrForeignKeyViolation)
	}
	d.r.m.drawSeq++
	now := d.r.m.Now()
	draw := models.Draw{
		ID:           d.r.m.drawSeq,
		GameID:       gameID,
		DrawDatetime: models.NewLocalDateTime(at.Time),
		Image:        image,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	d.r.st.draws[draw.ID] = draw
	return &draw, nil
}

func (d memDraws) ListDue(ctx context.Context, cutoff models.LocalDateTime, limit int) ([]models.Draw, error) {
	due := d.sorted(func(draw models.Draw) bool {
		return !draw.Notified && !draw.DrawDatetime.After(cutoff.Time)
	})
	sort.SliceStable(due, func(i, j int) bool { return due[i].DrawDatetime.Before(due[j].DrawDatetime.Time) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (d memDraws) LockPending(ctx context.Context, id int64) (*models.Draw, error) {
	draw, ok := d.r.st.draws[id]
	if !ok || draw.Notified {
		return nil, nil
	}
	return &draw, nil
}

func (d memDraws) MarkNotified(ctx context.Context, id int64) (bool, error) {
	draw, ok := d.r.st.draws[id]
	if !ok || draw.Notified {
		return false, nil
	}
	draw.Notified = true
	draw.UpdatedAt = d.r.m.Now()
	d.r.st.draws[id] = draw
	return true, nil
}
