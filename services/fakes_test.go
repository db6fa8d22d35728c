package services

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/league-system/models"
	"github.com/Dosada05/league-system/realtime"
	"github.com/Dosada05/league-system/repositories"
	"github.com/Dosada05/league-system/storage"
)

// memStore is a shared in-memory backing for the fake repositories, so a
// service under test sees one consistent data set.
type memStore struct {
	mu sync.Mutex

	users   map[int]*models.User
	seasons map[int]*models.Season
	teams   map[int]*models.Team
	entries map[int]*models.SeasonEntry
	offers  map[int]*models.Offer
	games   map[int]*models.Game

	nextID int
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[int]*models.User),
		seasons: make(map[int]*models.Season),
		teams:   make(map[int]*models.Team),
		entries: make(map[int]*models.SeasonEntry),
		offers:  make(map[int]*models.Offer),
		games:   make(map[int]*models.Game),
		nextID:  1,
	}
}

func (s *memStore) id() int {
	id := s.nextID
	s.nextID++
	return id
}

func (s *memStore) addUser(u models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	}
	copied := u
	s.users[copied.ID] = &copied
	return &copied
}

func (s *memStore) addSeason(season models.Season) *models.Season {
	s.mu.Lock()
	defer s.mu.Unlock()
	if season.ID == 0 {
		season.ID = s.id()
	}
	copied := season
	s.seasons[copied.ID] = &copied
	return &copied
}

func (s *memStore) addTeam(t models.Team) *models.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.id()
	}
	copied := t
	s.teams[copied.ID] = &copied
	return &copied
}

func (s *memStore) addEntry(e models.SeasonEntry) *models.SeasonEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = s.id()
	}
	copied := e
	s.entries[copied.ID] = &copied
	return &copied
}

func (s *memStore) addOffer(o models.Offer) *models.Offer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == 0 {
		o.ID = s.id()
	}
	if o.Status == "" {
		o.Status = models.OfferPending
	}
	copied := o
	s.offers[copied.ID] = &copied
	return &copied
}

func (s *memStore) addGame(g models.Game) *models.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == 0 {
		g.ID = s.id()
	}
	copied := g
	s.games[copied.ID] = &copied
	return &copied
}

func entryCopy(e *models.SeasonEntry) *models.SeasonEntry {
	copied := *e
	if e.TeamID != nil {
		teamID := *e.TeamID
		copied.TeamID = &teamID
	}
	return &copied
}

// fakeTxRunner executes the function directly; the fakes have no real
// transactions, so rollback is not simulated.
type fakeTxRunner struct{}

func (f *fakeTxRunner) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeUserRepo struct{ store *memStore }

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = r.store.id()
	copied := *user
	r.store.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, user := range r.store.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetByConfirmationToken(ctx context.Context, token string) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, user := range r.store.users {
		if user.EmailConfirmationToken != nil && *user.EmailConfirmationToken == token {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetByPasswordResetToken(ctx context.Context, token string) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, user := range r.store.users {
		if user.PasswordResetToken != nil && *user.PasswordResetToken == token {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	copied := *user
	r.store.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) ConfirmEmail(ctx context.Context, id int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.EmailConfirmed = true
	user.EmailConfirmationToken = nil
	return nil
}

func (r *fakeUserRepo) SetPasswordResetToken(ctx context.Context, id int, token string, expiresAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.PasswordResetToken = &token
	user.PasswordResetExpiresAt = &expiresAt
	return nil
}

func (r *fakeUserRepo) UpdateLogoKey(ctx context.Context, id int, logoKey *string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.LogoKey = logoKey
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.store.users, id)
	return nil
}

func (r *fakeUserRepo) DeleteUnconfirmedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var deleted int64
	for id, user := range r.store.users {
		if !user.EmailConfirmed && user.CreatedAt.Before(cutoff) {
			delete(r.store.users, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return len(r.store.users), nil
}

type fakeSeasonRepo struct{ store *memStore }

func (r *fakeSeasonRepo) Create(ctx context.Context, season *models.Season) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.seasons {
		if existing.Name == season.Name {
			return repositories.ErrSeasonNameConflict
		}
	}
	season.ID = r.store.id()
	copied := *season
	r.store.seasons[season.ID] = &copied
	return nil
}

func (r *fakeSeasonRepo) GetByID(ctx context.Context, id int) (*models.Season, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	season, ok := r.store.seasons[id]
	if !ok {
		return nil, repositories.ErrSeasonNotFound
	}
	copied := *season
	return &copied, nil
}

func (r *fakeSeasonRepo) List(ctx context.Context) ([]*models.Season, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	seasons := make([]*models.Season, 0, len(r.store.seasons))
	for _, season := range r.store.seasons {
		copied := *season
		seasons = append(seasons, &copied)
	}
	sort.Slice(seasons, func(i, j int) bool { return seasons[i].ID < seasons[j].ID })
	return seasons, nil
}

func (r *fakeSeasonRepo) Current(ctx context.Context, now time.Time) (*models.Season, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var best *models.Season
	for _, season := range r.store.seasons {
		if season.DateEnd.Before(now) && season.RegistrationEnd.Before(now) {
			continue
		}
		if best == nil || season.RegistrationStart.Before(best.RegistrationStart) {
			best = season
		}
	}
	if best == nil {
		return nil, repositories.ErrSeasonNotFound
	}
	copied := *best
	return &copied, nil
}

func (r *fakeSeasonRepo) Count(ctx context.Context) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return len(r.store.seasons), nil
}

type fakeTeamRepo struct{ store *memStore }

func (r *fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.seasons[team.SeasonID]; !ok {
		return repositories.ErrTeamSeasonInvalid
	}
	for _, existing := range r.store.teams {
		if existing.SeasonID == team.SeasonID && existing.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	team.ID = r.store.id()
	copied := *team
	r.store.teams[team.ID] = &copied
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	team, ok := r.store.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) ListBySeason(ctx context.Context, seasonID int) ([]*models.Team, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var teams []*models.Team
	for _, team := range r.store.teams {
		if team.SeasonID == seasonID {
			copied := *team
			teams = append(teams, &copied)
		}
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams, nil
}

func (r *fakeTeamRepo) UpdateName(ctx context.Context, id int, name string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	team, ok := r.store.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	for _, existing := range r.store.teams {
		if existing.ID != id && existing.SeasonID == team.SeasonID && existing.Name == name {
			return repositories.ErrTeamNameConflict
		}
	}
	team.Name = name
	return nil
}

func (r *fakeTeamRepo) UpdateLogoKey(ctx context.Context, id int, logoKey *string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	team, ok := r.store.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.LogoKey = logoKey
	return nil
}

func (r *fakeTeamRepo) GetRegistered(ctx context.Context, exec repositories.SQLExecutor, id int) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	team, ok := r.store.teams[id]
	if !ok {
		return false, repositories.ErrTeamNotFound
	}
	return team.Registered, nil
}

func (r *fakeTeamRepo) SetRegistered(ctx context.Context, exec repositories.SQLExecutor, id int, registered bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	team, ok := r.store.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	if registered && !team.Registered {
		now := time.Now()
		team.RegisteredDate = &now
	}
	if !registered {
		team.RegisteredDate = nil
	}
	team.Registered = registered
	return nil
}

func (r *fakeTeamRepo) SetPlacement(ctx context.Context, id int, placement *int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	team, ok := r.store.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.Placement = placement
	return nil
}

func (r *fakeTeamRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	for _, game := range r.store.games {
		if game.HomeTeamID == id || game.AwayTeamID == id {
			return repositories.ErrTeamHasGames
		}
	}
	delete(r.store.teams, id)
	return nil
}

func (r *fakeTeamRepo) Count(ctx context.Context) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return len(r.store.teams), nil
}

func (r *fakeTeamRepo) CountRegistered(ctx context.Context) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, team := range r.store.teams {
		if team.Registered {
			count++
		}
	}
	return count, nil
}

type fakeEntryRepo struct{ store *memStore }

func (r *fakeEntryRepo) findLocked(userID, seasonID int) *models.SeasonEntry {
	for _, entry := range r.store.entries {
		if entry.UserID == userID && entry.SeasonID == seasonID {
			return entry
		}
	}
	return nil
}

func (r *fakeEntryRepo) GetOrCreate(ctx context.Context, exec repositories.SQLExecutor, userID, seasonID int) (*models.SeasonEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if entry := r.findLocked(userID, seasonID); entry != nil {
		return entryCopy(entry), nil
	}
	if _, ok := r.store.seasons[seasonID]; !ok {
		return nil, repositories.ErrEntrySeasonInvalid
	}
	entry := &models.SeasonEntry{ID: r.store.id(), UserID: userID, SeasonID: seasonID}
	r.store.entries[entry.ID] = entry
	return entryCopy(entry), nil
}

func (r *fakeEntryRepo) Get(ctx context.Context, userID, seasonID int) (*models.SeasonEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	entry := r.findLocked(userID, seasonID)
	if entry == nil {
		return nil, repositories.ErrEntryNotFound
	}
	return entryCopy(entry), nil
}

func (r *fakeEntryRepo) GetByID(ctx context.Context, id int) (*models.SeasonEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	entry, ok := r.store.entries[id]
	if !ok {
		return nil, repositories.ErrEntryNotFound
	}
	return entryCopy(entry), nil
}

func (r *fakeEntryRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, userID, seasonID int) (*models.SeasonEntry, error) {
	return r.Get(ctx, userID, seasonID)
}

func (r *fakeEntryRepo) AssignTeam(ctx context.Context, exec repositories.SQLExecutor, entryID, teamID int, captain bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	entry, ok := r.store.entries[entryID]
	if !ok {
		return repositories.ErrEntryNotFound
	}
	entry.TeamID = &teamID
	entry.Captain = captain
	return nil
}

func (r *fakeEntryRepo) ClearTeam(ctx context.Context, exec repositories.SQLExecutor, entryID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	entry, ok := r.store.entries[entryID]
	if !ok {
		return repositories.ErrEntryNotFound
	}
	entry.TeamID = nil
	entry.Captain = false
	return nil
}

func (r *fakeEntryRepo) ClearTeamForAll(ctx context.Context, exec repositories.SQLExecutor, teamID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, entry := range r.store.entries {
		if entry.TeamID != nil && *entry.TeamID == teamID {
			entry.TeamID = nil
			entry.Captain = false
		}
	}
	return nil
}

func (r *fakeEntryRepo) SetCaptain(ctx context.Context, exec repositories.SQLExecutor, entryID int, captain bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	entry, ok := r.store.entries[entryID]
	if !ok || entry.TeamID == nil {
		return repositories.ErrEntryNotFound
	}
	entry.Captain = captain
	return nil
}

func (r *fakeEntryRepo) SetPaid(ctx context.Context, exec repositories.SQLExecutor, entryID int, paid bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	entry, ok := r.store.entries[entryID]
	if !ok {
		return repositories.ErrEntryNotFound
	}
	entry.Paid = paid
	return nil
}

func (r *fakeEntryRepo) SetSigned(ctx context.Context, exec repositories.SQLExecutor, entryID int, signed bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	entry, ok := r.store.entries[entryID]
	if !ok {
		return repositories.ErrEntryNotFound
	}
	entry.Signed = signed
	return nil
}

func (r *fakeEntryRepo) ListByTeam(ctx context.Context, teamID int) ([]*models.SeasonEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var entries []*models.SeasonEntry
	for _, entry := range r.store.entries {
		if entry.TeamID != nil && *entry.TeamID == teamID {
			copied := entryCopy(entry)
			if user, ok := r.store.users[entry.UserID]; ok {
				userCopy := *user
				copied.User = &userCopy
			}
			entries = append(entries, copied)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Captain != entries[j].Captain {
			return entries[i].Captain
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

func (r *fakeEntryRepo) ListByUser(ctx context.Context, userID int) ([]*models.SeasonEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var entries []*models.SeasonEntry
	for _, entry := range r.store.entries {
		if entry.UserID == userID {
			entries = append(entries, entryCopy(entry))
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (r *fakeEntryRepo) CountRegistered(ctx context.Context, exec repositories.SQLExecutor, teamID int) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, entry := range r.store.entries {
		if entry.TeamID != nil && *entry.TeamID == teamID && entry.Paid && entry.Signed {
			count++
		}
	}
	return count, nil
}

func (r *fakeEntryRepo) TeamIDsByUser(ctx context.Context, exec repositories.SQLExecutor, userID int) ([]int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var teamIDs []int
	for _, entry := range r.store.entries {
		if entry.UserID == userID && entry.TeamID != nil {
			teamIDs = append(teamIDs, *entry.TeamID)
		}
	}
	sort.Ints(teamIDs)
	return teamIDs, nil
}

func (r *fakeEntryRepo) DeleteByUser(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, entry := range r.store.entries {
		if entry.UserID == userID {
			delete(r.store.entries, id)
		}
	}
	return nil
}

type fakeOfferRepo struct{ store *memStore }

func (r *fakeOfferRepo) Create(ctx context.Context, offer *models.Offer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.offers {
		if existing.UserID == offer.UserID && existing.TeamID == offer.TeamID && existing.Status == models.OfferPending {
			return repositories.ErrOfferAlreadyPending
		}
	}
	offer.ID = r.store.id()
	offer.Status = models.OfferPending
	offer.CreatedAt = time.Now()
	copied := *offer
	r.store.offers[offer.ID] = &copied
	return nil
}

func (r *fakeOfferRepo) GetByID(ctx context.Context, id int) (*models.Offer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	offer, ok := r.store.offers[id]
	if !ok {
		return nil, repositories.ErrOfferNotFound
	}
	copied := *offer
	return &copied, nil
}

func (r *fakeOfferRepo) ListByUserSeason(ctx context.Context, userID, seasonID int) ([]*models.Offer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var offers []*models.Offer
	for _, offer := range r.store.offers {
		if offer.UserID == userID && offer.SeasonID == seasonID && offer.Status == models.OfferPending {
			copied := *offer
			offers = append(offers, &copied)
		}
	}
	sort.Slice(offers, func(i, j int) bool { return offers[i].ID < offers[j].ID })
	return offers, nil
}

func (r *fakeOfferRepo) ListByTeam(ctx context.Context, teamID int) ([]*models.Offer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var offers []*models.Offer
	for _, offer := range r.store.offers {
		if offer.TeamID == teamID && offer.Status == models.OfferPending {
			copied := *offer
			offers = append(offers, &copied)
		}
	}
	sort.Slice(offers, func(i, j int) bool { return offers[i].ID < offers[j].ID })
	return offers, nil
}

func (r *fakeOfferRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.offers[id]; !ok {
		return repositories.ErrOfferNotFound
	}
	delete(r.store.offers, id)
	return nil
}

func (r *fakeOfferRepo) DeleteByUserSeason(ctx context.Context, exec repositories.SQLExecutor, userID, seasonID, exceptID int) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var deleted int64
	for id, offer := range r.store.offers {
		if offer.UserID == userID && offer.SeasonID == seasonID && id != exceptID {
			delete(r.store.offers, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeOfferRepo) DeleteByTeam(ctx context.Context, exec repositories.SQLExecutor, teamID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, offer := range r.store.offers {
		if offer.TeamID == teamID {
			delete(r.store.offers, id)
		}
	}
	return nil
}

func (r *fakeOfferRepo) DeleteByUser(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, offer := range r.store.offers {
		if offer.UserID == userID {
			delete(r.store.offers, id)
		}
	}
	return nil
}

func (r *fakeOfferRepo) DeleteStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cutoff := time.Now().Add(-maxAge)
	var deleted int64
	for id, offer := range r.store.offers {
		if offer.CreatedAt.Before(cutoff) {
			delete(r.store.offers, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeOfferRepo) CountPending(ctx context.Context) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, offer := range r.store.offers {
		if offer.Status == models.OfferPending {
			count++
		}
	}
	return count, nil
}

type fakeGameRepo struct{ store *memStore }

func (r *fakeGameRepo) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, games []*models.Game) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, game := range games {
		game.ID = r.store.id()
		copied := *game
		r.store.games[game.ID] = &copied
	}
	return nil
}

func (r *fakeGameRepo) GetByID(ctx context.Context, id int) (*models.Game, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	game, ok := r.store.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	copied := *game
	return &copied, nil
}

func (r *fakeGameRepo) UpdateScore(ctx context.Context, id int, homeScore, awayScore int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	game, ok := r.store.games[id]
	if !ok {
		return repositories.ErrGameNotFound
	}
	game.HomeScore = &homeScore
	game.AwayScore = &awayScore
	return nil
}

func (r *fakeGameRepo) ListBySeason(ctx context.Context, seasonID int) ([]*models.Game, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var games []*models.Game
	for _, game := range r.store.games {
		if game.SeasonID == seasonID {
			copied := *game
			games = append(games, &copied)
		}
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

func (r *fakeGameRepo) ListByTeam(ctx context.Context, teamID int) ([]*models.Game, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var games []*models.Game
	for _, game := range r.store.games {
		if game.HomeTeamID == teamID || game.AwayTeamID == teamID {
			copied := *game
			games = append(games, &copied)
		}
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

func (r *fakeGameRepo) CountBySeason(ctx context.Context, seasonID int) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, game := range r.store.games {
		if game.SeasonID == seasonID {
			count++
		}
	}
	return count, nil
}

func (r *fakeGameRepo) CountPlayed(ctx context.Context) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, game := range r.store.games {
		if game.Played() {
			count++
		}
	}
	return count, nil
}

// fakeHub records broadcast messages for assertions.
type fakeHub struct {
	mu       sync.Mutex
	messages []realtime.Message
}

func (h *fakeHub) BroadcastToRoom(roomID string, message interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if msg, ok := message.(realtime.Message); ok {
		h.messages = append(h.messages, msg)
	}
}

func (h *fakeHub) eventsOfType(eventType string) []realtime.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	var matched []realtime.Message
	for _, msg := range h.messages {
		if msg.Type == eventType {
			matched = append(matched, msg)
		}
	}
	return matched
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string]string
	deleted []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string]string)}
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = contentType
	return &storage.UploadResult{Key: key, Location: "https://cdn.test/" + key}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

type fakeWaiverSender struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (w *fakeWaiverSender) SendWaiverRequest(ctx context.Context, signerName, signerEmail string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return "", w.err
	}
	w.calls = append(w.calls, signerEmail)
	return "req_test", nil
}

// testEnv bundles the fakes so each test starts from the same wiring.
type testEnv struct {
	store        *memStore
	tx           *fakeTxRunner
	users        *fakeUserRepo
	seasons      *fakeSeasonRepo
	teams        *fakeTeamRepo
	entries      *fakeEntryRepo
	offers       *fakeOfferRepo
	games        *fakeGameRepo
	hub          *fakeHub
	uploader     *fakeUploader
	registration *RegistrationService
}

func newTestEnv() *testEnv {
	store := newMemStore()
	entries := &fakeEntryRepo{store: store}
	teams := &fakeTeamRepo{store: store}
	return &testEnv{
		store:        store,
		tx:           &fakeTxRunner{},
		users:        &fakeUserRepo{store: store},
		seasons:      &fakeSeasonRepo{store: store},
		teams:        teams,
		entries:      entries,
		offers:       &fakeOfferRepo{store: store},
		games:        &fakeGameRepo{store: store},
		hub:          &fakeHub{},
		uploader:     newFakeUploader(),
		registration: NewRegistrationService(entries, teams),
	}
}

// openSeason returns a season whose registration window covers now.
func (e *testEnv) openSeason() *models.Season {
	now := time.Now()
	return e.store.addSeason(models.Season{
		Name:              "Fall 2026",
		RegistrationStart: now.Add(-24 * time.Hour),
		RegistrationEnd:   now.Add(14 * 24 * time.Hour),
		DateStart:         now.Add(21 * 24 * time.Hour),
		DateEnd:           now.Add(90 * 24 * time.Hour),
	})
}

func (e *testEnv) confirmedUser(email string) *models.User {
	return e.store.addUser(models.User{
		FirstName:      "Test",
		LastName:       "Player",
		Email:          email,
		Role:           models.RolePlayer,
		EmailConfirmed: true,
	})
}

// rosteredUser creates a confirmed user already on the team.
func (e *testEnv) rosteredUser(email string, season *models.Season, team *models.Team, captain bool) *models.User {
	user := e.confirmedUser(email)
	teamID := team.ID
	e.store.addEntry(models.SeasonEntry{
		UserID:   user.ID,
		SeasonID: season.ID,
		TeamID:   &teamID,
		Captain:  captain,
	})
	return user
}

func (e *testEnv) freeAgent(email string, season *models.Season) *models.User {
	user := e.confirmedUser(email)
	e.store.addEntry(models.SeasonEntry{
		UserID:   user.ID,
		SeasonID: season.ID,
	})
	return user
}
