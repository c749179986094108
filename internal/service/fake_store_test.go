package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

// fakeDB - хранилище в памяти с уникальными ограничениями и откатом транзакций
type fakeDB struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	nextID uint

	users          map[uint]entity.User
	contests       map[uint]entity.Contest
	participations map[uint]entity.Participation
	answers        map[uint]entity.Answer
	prizes         map[uint]entity.Prize

	// beforeParticipationCreate вызывается внутри Create; ненулевая ошибка прерывает вставку
	beforeParticipationCreate func(p *entity.Participation) error
	// onRollback выполняется после отката, имитируя фиксацию параллельной транзакции
	onRollback []func()
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		users:          map[uint]entity.User{},
		contests:       map[uint]entity.Contest{},
		participations: map[uint]entity.Participation{},
		answers:        map[uint]entity.Answer{},
		prizes:         map[uint]entity.Prize{},
	}
}

func (db *fakeDB) id() uint {
	db.nextID++
	return db.nextID
}

// fakeSnapshot не включает nextID: как и последовательности PostgreSQL, ID не переиспользуются
type fakeSnapshot struct {
	users          map[uint]entity.User
	contests       map[uint]entity.Contest
	participations map[uint]entity.Participation
	answers        map[uint]entity.Answer
	prizes         map[uint]entity.Prize
}

func copyMap[T any](in map[uint]T) map[uint]T {
	out := make(map[uint]T, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (db *fakeDB) snapshot() fakeSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	return fakeSnapshot{
		users:          copyMap(db.users),
		contests:       copyMap(db.contests),
		participations: copyMap(db.participations),
		answers:        copyMap(db.answers),
		prizes:         copyMap(db.prizes),
	}
}

func (db *fakeDB) restore(s fakeSnapshot) {
	db.mu.Lock()
	db.users = s.users
	db.contests = s.contests
	db.participations = s.participations
	db.answers = s.answers
	db.prizes = s.prizes
	hooks := db.onRollback
	db.onRollback = nil
	db.mu.Unlock()
	for _, h := range hooks {
		h()
	}
}

// WithinTransaction сериализует транзакции, что соответствует блокировкам строк в PostgreSQL
func (db *fakeDB) WithinTransaction(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	snap := db.snapshot()
	if err := fn(ctx, db); err != nil {
		db.restore(snap)
		return err
	}
	return nil
}

func (db *fakeDB) Users() repository.UserRepository                   { return fakeUsers{db} }
func (db *fakeDB) Contests() repository.ContestRepository             { return fakeContests{db} }
func (db *fakeDB) Participations() repository.ParticipationRepository { return fakeParticipations{db} }
func (db *fakeDB) Prizes() repository.PrizeRepository                 { return fakePrizes{db} }

func conflict(what string) error {
	return fmt.Errorf("%w: duplicate %s", apperrors.ErrConflict, what)
}

// ---------- users ----------

type fakeUsers struct{ db *fakeDB }

func (r fakeUsers) Create(_ context.Context, u *entity.User) error {
	if err := u.BeforeSave(nil); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return conflict("user")
		}
	}
	u.ID = r.db.id()
	r.db.users[u.ID] = *u
	return nil
}

func (r fakeUsers) GetByID(_ context.Context, id uint) (*entity.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (r fakeUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r fakeUsers) List(_ context.Context, limit, offset int) ([]entity.User, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	all := make([]entity.User, 0, len(r.db.users))
	for _, u := range r.db.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, limit, offset), int64(len(all)), nil
}

func (r fakeUsers) UpdateRole(_ context.Context, id uint, role string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.Role = role
	r.db.users[id] = u
	return nil
}

// ---------- contests ----------

type fakeContests struct{ db *fakeDB }

func (r fakeContests) Create(_ context.Context, c *entity.Contest) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c.ID = r.db.id()
	r.db.assignQuestionIDs(c.ID, c.Questions)
	r.db.contests[c.ID] = cloneContest(*c)
	return nil
}

func (db *fakeDB) assignQuestionIDs(contestID uint, questions []entity.Question) {
	for i := range questions {
		questions[i].ID = db.id()
		questions[i].ContestID = contestID
		for j := range questions[i].Options {
			questions[i].Options[j].ID = db.id()
			questions[i].Options[j].QuestionID = questions[i].ID
		}
	}
}

func cloneContest(c entity.Contest) entity.Contest {
	qs := make([]entity.Question, len(c.Questions))
	for i, q := range c.Questions {
		q.Options = append([]entity.Option(nil), q.Options...)
		qs[i] = q
	}
	c.Questions = qs
	return c
}

func (r fakeContests) GetByID(_ context.Context, id uint) (*entity.Contest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.contests[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c.Questions = nil
	return &c, nil
}

func (r fakeContests) GetWithQuestions(_ context.Context, id uint) (*entity.Contest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.contests[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c = cloneContest(c)
	return &c, nil
}

func (r fakeContests) GetByIDs(_ context.Context, ids []uint) ([]entity.Contest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entity.Contest
	for _, id := range ids {
		if c, ok := r.db.contests[id]; ok {
			c.Questions = nil
			out = append(out, c)
		}
	}
	return out, nil
}

func (r fakeContests) List(_ context.Context, f repository.ContestFilter, limit, offset int) ([]entity.Contest, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var all []entity.Contest
	for _, c := range r.db.contests {
		if len(f.AccessLevels) > 0 && !contains(f.AccessLevels, c.AccessLevel) {
			continue
		}
		if f.Status != "" && c.StatusAt(f.Now) != f.Status {
			continue
		}
		c.Questions = nil
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].StartTime.Equal(all[j].StartTime) {
			return all[i].StartTime.Before(all[j].StartTime)
		}
		return all[i].ID < all[j].ID
	})
	return paginate(all, limit, offset), int64(len(all)), nil
}

func (r fakeContests) CountQuestions(_ context.Context, contestID uint) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return int64(len(r.db.contests[contestID].Questions)), nil
}

func (r fakeContests) Update(_ context.Context, c *entity.Contest) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.contests[c.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	updated := *c
	updated.Questions = stored.Questions
	r.db.contests[c.ID] = updated
	return nil
}

func (r fakeContests) ReplaceQuestions(_ context.Context, contestID uint, questions []entity.Question) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.contests[contestID]
	if !ok {
		return apperrors.ErrNotFound
	}
	r.db.assignQuestionIDs(contestID, questions)
	c.Questions = questions
	r.db.contests[contestID] = cloneContest(c)
	return nil
}

func (r fakeContests) Delete(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.contests[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.db.contests, id)
	for pid, p := range r.db.participations {
		if p.ContestID == id {
			delete(r.db.participations, pid)
			for aid, a := range r.db.answers {
				if a.ParticipationID == pid {
					delete(r.db.answers, aid)
				}
			}
		}
	}
	for pid, p := range r.db.prizes {
		if p.ContestID == id {
			delete(r.db.prizes, pid)
		}
	}
	return nil
}

// ---------- participations ----------

type fakeParticipations struct{ db *fakeDB }

func (r fakeParticipations) Create(_ context.Context, p *entity.Participation) error {
	if hook := r.db.beforeParticipationCreate; hook != nil {
		if err := hook(p); err != nil {
			return err
		}
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.participations {
		if existing.UserID == p.UserID && existing.ContestID == p.ContestID {
			return conflict("participation")
		}
	}
	p.ID = r.db.id()
	if p.UpdatedAt.IsZero() {
		p.CreatedAt = p.StartedAt
		p.UpdatedAt = p.StartedAt
	}
	r.db.participations[p.ID] = *p
	return nil
}

func (r fakeParticipations) GetByUserAndContest(_ context.Context, userID, contestID uint) (*entity.Participation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.participations {
		if p.UserID == userID && p.ContestID == contestID {
			return &p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r fakeParticipations) LockInProgress(ctx context.Context, userID, contestID uint) (*entity.Participation, error) {
	p, err := r.GetByUserAndContest(ctx, userID, contestID)
	if err != nil {
		return nil, err
	}
	if !p.IsInProgress() {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

func (r fakeParticipations) MarkSubmitted(_ context.Context, id uint, score int, submittedAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.participations[id]
	if !ok || !p.IsInProgress() {
		return apperrors.ErrNotFound
	}
	p.Status = entity.ParticipationStatusSubmitted
	p.Score = score
	p.SubmittedAt = &submittedAt
	p.UpdatedAt = submittedAt
	r.db.participations[id] = p
	return nil
}

func (r fakeParticipations) CreateAnswers(_ context.Context, answers []entity.Answer) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, a := range answers {
		for _, existing := range r.db.answers {
			if existing.ParticipationID == a.ParticipationID && existing.QuestionID == a.QuestionID {
				return conflict("answer")
			}
		}
		a.ID = r.db.id()
		r.db.answers[a.ID] = a
	}
	return nil
}

func (r fakeParticipations) CountAnswers(_ context.Context, participationID uint) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, a := range r.db.answers {
		if a.ParticipationID == participationID {
			n++
		}
	}
	return n, nil
}

func (db *fakeDB) rankedLocked(contestID uint) []entity.Participation {
	var rows []entity.Participation
	for _, p := range db.participations {
		if p.ContestID == contestID && p.IsSubmitted() {
			rows = append(rows, p)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rankedBefore(&rows[i], &rows[j]) })
	return rows
}

func rankedBefore(a, b *entity.Participation) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.SubmittedAt.Equal(*b.SubmittedAt) {
		return a.SubmittedAt.Before(*b.SubmittedAt)
	}
	return a.ID < b.ID
}

func (r fakeParticipations) ListRanked(_ context.Context, contestID uint, limit, offset int) ([]repository.RankedParticipation, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rows := r.db.rankedLocked(contestID)
	page := paginate(rows, limit, offset)
	out := make([]repository.RankedParticipation, 0, len(page))
	for _, p := range page {
		out = append(out, repository.RankedParticipation{
			ParticipationID: p.ID,
			UserID:          p.UserID,
			Username:        r.db.users[p.UserID].Username,
			Score:           p.Score,
			SubmittedAt:     *p.SubmittedAt,
		})
	}
	return out, int64(len(rows)), nil
}

func (r fakeParticipations) RankOf(_ context.Context, p *entity.Participation) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rank := 1
	for _, other := range r.db.rankedLocked(p.ContestID) {
		if other.ID != p.ID && rankedBefore(&other, p) {
			rank++
		}
	}
	return rank, nil
}

func (r fakeParticipations) ListByUser(_ context.Context, userID uint, status string, limit, offset int) ([]entity.Participation, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var rows []entity.Participation
	for _, p := range r.db.participations {
		if p.UserID == userID && (status == "" || p.Status == status) {
			rows = append(rows, p)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].UpdatedAt.Equal(rows[j].UpdatedAt) {
			return rows[i].UpdatedAt.After(rows[j].UpdatedAt)
		}
		return rows[i].ID > rows[j].ID
	})
	return paginate(rows, limit, offset), int64(len(rows)), nil
}

func (r fakeParticipations) ListInProgressByUser(_ context.Context, userID uint) ([]entity.Participation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var rows []entity.Participation
	for _, p := range r.db.participations {
		if p.UserID == userID && p.IsInProgress() {
			c := r.db.contests[p.ContestID]
			p.Contest = &c
			rows = append(rows, p)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (r fakeParticipations) ListUserIDsByContest(_ context.Context, contestID uint) ([]uint, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var ids []uint
	for _, p := range r.db.participations {
		if p.ContestID == contestID {
			ids = append(ids, p.UserID)
		}
	}
	return ids, nil
}

func (r fakeParticipations) CountByContest(_ context.Context, contestID uint) (int64, error) {
	ids, _ := r.ListUserIDsByContest(context.Background(), contestID)
	return int64(len(ids)), nil
}

// ---------- prizes ----------

type fakePrizes struct{ db *fakeDB }

func (r fakePrizes) CreateBatch(_ context.Context, prizes []entity.Prize) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range prizes {
		for _, existing := range r.db.prizes {
			if existing.ContestID == prizes[i].ContestID && existing.Rank == prizes[i].Rank {
				return conflict("prize")
			}
		}
		prizes[i].ID = r.db.id()
		r.db.prizes[prizes[i].ID] = prizes[i]
	}
	return nil
}

func (r fakePrizes) ListByContest(_ context.Context, contestID uint) ([]entity.Prize, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entity.Prize
	for _, p := range r.db.prizes {
		if p.ContestID == contestID {
			if p.UserID != nil {
				u := r.db.users[*p.UserID]
				p.User = &u
			}
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out, nil
}

func (r fakePrizes) LockByContest(ctx context.Context, contestID uint) ([]entity.Prize, error) {
	return r.ListByContest(ctx, contestID)
}

func (r fakePrizes) LockByID(_ context.Context, id uint) (*entity.Prize, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.prizes[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &p, nil
}

func (r fakePrizes) ListByUser(_ context.Context, userID uint) ([]entity.Prize, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entity.Prize
	for _, p := range r.db.prizes {
		if p.UserID != nil && *p.UserID == userID {
			c := r.db.contests[p.ContestID]
			c.Questions = nil
			p.Contest = &c
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakePrizes) Save(_ context.Context, prize *entity.Prize) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.prizes[prize.ID]; !ok {
		return apperrors.ErrNotFound
	}
	saved := *prize
	saved.User = nil
	saved.Contest = nil
	r.db.prizes[prize.ID] = saved
	return nil
}

// ---------- helpers ----------

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
