package persist

import (
	"context"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"focustimer/internal/model"
	"focustimer/internal/validation"
)

const GuestFileName = "guest.yaml"

type guestFile struct {
	Tasks       []model.Task        `yaml:"tasks"`
	CurrentTask *model.TaskSnapshot `yaml:"current_task,omitempty"`
	Settings    *model.Settings     `yaml:"settings,omitempty"`
}

// LocalStore keeps guest data in a YAML file. The file is re-read on every
// call so separate CLI invocations observe each other's writes.
type LocalStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{
		path: filepath.Join(dir, GuestFileName),
		now:  time.Now,
	}
}

func (s *LocalStore) Path() string {
	return s.path
}

func (s *LocalStore) ListTasks(ctx context.Context) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}
	return file.Tasks, nil
}

func (s *LocalStore) CreateTask(ctx context.Context, label string) (*model.Task, error) {
	label, err := cleanLabel(label)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}

	position := 0
	for _, task := range file.Tasks {
		if task.Position >= position {
			position = task.Position + 1
		}
	}
	now := s.now().UTC()
	task := model.Task{
		ID:        uuid.NewString(),
		Label:     label,
		Position:  position,
		CreatedAt: now,
		UpdatedAt: now,
	}
	file.Tasks = append(file.Tasks, task)
	if err := s.save(file); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *LocalStore) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	if patch.Label != nil {
		label, err := cleanLabel(*patch.Label)
		if err != nil {
			return nil, err
		}
		patch.Label = &label
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}
	idx := indexOf(file.Tasks, id)
	if idx < 0 {
		return nil, ErrTaskNotFound
	}

	task := &file.Tasks[idx]
	if patch.Label != nil {
		task.Label = *patch.Label
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}
	task.UpdatedAt = s.now().UTC()

	if file.CurrentTask != nil && file.CurrentTask.ID == id {
		snapshot := task.Snapshot()
		file.CurrentTask = &snapshot
	}
	if err := s.save(file); err != nil {
		return nil, err
	}
	updated := *task
	return &updated, nil
}

func (s *LocalStore) DeleteTask(ctx context.Context, id string) error {
	deleted, err := s.DeleteTasks(ctx, []string{id})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (s *LocalStore) DeleteTasks(ctx context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return 0, err
	}

	remove := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		remove[id] = struct{}{}
	}
	kept := file.Tasks[:0]
	for _, task := range file.Tasks {
		if _, ok := remove[task.ID]; !ok {
			kept = append(kept, task)
		}
	}
	deleted := len(file.Tasks) - len(kept)
	file.Tasks = kept
	if deleted == 0 {
		return 0, nil
	}

	if file.CurrentTask != nil {
		if _, ok := remove[file.CurrentTask.ID]; ok {
			file.CurrentTask = nil
		}
	}
	if err := s.save(file); err != nil {
		return 0, err
	}
	return deleted, nil
}

// ReorderTasks assigns positions following ids. Every id must exist and
// appear once.
func (s *LocalStore) ReorderTasks(ctx context.Context, ids []string) ([]model.Task, error) {
	if validation.Var("ids", ids, "unique") != nil {
		return nil, ErrDuplicateIDs
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	for position, id := range ids {
		idx := indexOf(file.Tasks, id)
		if idx < 0 {
			return nil, ErrTaskNotFound
		}
		file.Tasks[idx].Position = position
		file.Tasks[idx].UpdatedAt = now
	}
	sortTasks(file.Tasks)
	if err := s.save(file); err != nil {
		return nil, err
	}
	return file.Tasks, nil
}

func (s *LocalStore) CurrentTask(ctx context.Context) (*model.TaskSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}
	return file.CurrentTask, nil
}

func (s *LocalStore) SetCurrentTask(ctx context.Context, task *model.TaskSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}
	if task != nil {
		copied := *task
		task = &copied
	}
	file.CurrentTask = task
	return s.save(file)
}

func (s *LocalStore) Settings(ctx context.Context) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return model.DefaultSettings(), err
	}
	if file.Settings == nil {
		return model.DefaultSettings(), nil
	}
	return file.Settings.Normalize(), nil
}

func (s *LocalStore) SaveSettings(ctx context.Context, settings model.Settings) (model.Settings, error) {
	settings = settings.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return settings, err
	}
	file.Settings = &settings
	return settings, s.save(file)
}

// ClearGuestData drops guest tasks, the current task and guest settings.
// It runs when a guest signs in.
func (s *LocalStore) ClearGuestData() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(guestFile{})
}

func (s *LocalStore) ClearCurrentTask() error {
	return s.SetCurrentTask(context.Background(), nil)
}

func (s *LocalStore) load() (guestFile, error) {
	var file guestFile
	if _, err := ReadYAML(s.path, &file); err != nil {
		return guestFile{}, err
	}
	sortTasks(file.Tasks)
	return file, nil
}

func (s *LocalStore) save(file guestFile) error {
	return WriteYAML(s.path, file, 0o644)
}

func indexOf(tasks []model.Task, id string) int {
	for i, task := range tasks {
		if task.ID == id {
			return i
		}
	}
	return -1
}

func sortTasks(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Position < tasks[j].Position
	})
}

func cleanLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if validation.Var("label", label, "required,max="+strconv.Itoa(model.MaxTaskLabelLength)) != nil {
		return "", ErrInvalidLabel
	}
	return label, nil
}
