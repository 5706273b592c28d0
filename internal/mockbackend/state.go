package mockbackend

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/lecturepilot/pkg/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username taken")
)

type userRecord struct {
	user models.User
	id   int
	hash []byte
}

type courseRecord struct {
	course   models.Course
	owner    int
	seq      int
	lectures []string
}

type lectureRecord struct {
	lecture models.Lecture
	owner   int
}

// State is the backend's in-memory data set. All methods are safe for
// concurrent use and return copies.
type State struct {
	now func() time.Time

	mu         sync.Mutex
	nextUser   int
	nextCourse int
	users      map[int]*userRecord
	courses    map[string]*courseRecord
	lectures   map[string]*lectureRecord
}

func NewState() *State {
	return &State{
		now:      time.Now,
		nextUser: 1,
		users:    make(map[int]*userRecord),
		courses:  make(map[string]*courseRecord),
		lectures: make(map[string]*lectureRecord),
	}
}

func (s *State) CreateUser(in models.SignupInput, hash []byte) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.usernameTaken(in.Username, 0) {
		return models.User{}, ErrUsernameTaken
	}
	id := s.nextUser
	s.nextUser++
	rec := &userRecord{
		id:   id,
		hash: hash,
		user: models.User{ID: id, Username: in.Username, Email: in.Email, Phone: in.Phone},
	}
	s.users[id] = rec
	return rec.user, nil
}

// Credentials returns the user and password hash for username.
func (s *State) Credentials(username string) (models.User, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.user.Username, username) {
			return u.user, u.hash, nil
		}
	}
	return models.User{}, nil, ErrNotFound
}

func (s *State) User(id int) (models.User, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, nil, ErrNotFound
	}
	return u.user, u.hash, nil
}

// UpdateUser applies an account edit. A nil hash keeps the password.
func (s *State) UpdateUser(id int, in models.AccountEdit, hash []byte) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	if s.usernameTaken(in.Username, id) {
		return models.User{}, ErrUsernameTaken
	}
	u.user.Username, u.user.Email, u.user.Phone = in.Username, in.Email, in.Phone
	if hash != nil {
		u.hash = hash
	}
	return u.user, nil
}

// DeleteUser removes the user with all their courses and lectures.
func (s *State) DeleteUser(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	for cid, c := range s.courses {
		if c.owner == id {
			s.deleteCourseLocked(cid)
		}
	}
}

func (s *State) usernameTaken(username string, except int) bool {
	for id, u := range s.users {
		if id != except && strings.EqualFold(u.user.Username, username) {
			return true
		}
	}
	return false
}

func (s *State) ListCourses(owner int) []models.Course {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := make([]*courseRecord, 0)
	for _, c := range s.courses {
		if c.owner == owner {
			owned = append(owned, c)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].seq < owned[j].seq })

	out := make([]models.Course, 0, len(owned))
	for _, c := range owned {
		course := c.course
		course.Lectures = nil
		n := len(c.lectures)
		course.LectureCount = &n
		out = append(out, course)
	}
	return out
}

func (s *State) CreateCourse(owner int, in models.CourseInput) models.Course {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	s.nextCourse++
	c := &courseRecord{
		owner: owner,
		seq:   s.nextCourse,
		course: models.Course{
			ID:        uuid.NewString(),
			Name:      in.Name,
			Teacher:   in.Teacher,
			Lectures:  []models.Lecture{},
			CreatedAt: &now,
		},
	}
	s.courses[c.course.ID] = c
	return c.course
}

func (s *State) UpdateCourse(owner int, id string, in models.CourseInput) (models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.ownedCourse(owner, id)
	if err != nil {
		return models.Course{}, err
	}
	c.course.Name, c.course.Teacher = in.Name, in.Teacher
	return s.courseViewLocked(c), nil
}

func (s *State) DeleteCourse(owner int, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.ownedCourse(owner, id); err != nil {
		return err
	}
	s.deleteCourseLocked(id)
	return nil
}

// Course returns the course aggregate with its lectures in upload order.
func (s *State) Course(owner int, id string) (models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.ownedCourse(owner, id)
	if err != nil {
		return models.Course{}, err
	}
	return s.courseViewLocked(c), nil
}

func (s *State) AddLecture(owner int, courseID, name, filename string) (models.Lecture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.ownedCourse(owner, courseID)
	if err != nil {
		return models.Lecture{}, err
	}

	now := s.now().UTC()
	id := uuid.NewString()
	l := &lectureRecord{
		owner: owner,
		lecture: models.Lecture{
			ID:            id,
			Name:          name,
			CourseID:      courseID,
			FileURL:       "/media/lectures/" + id + "/" + filename,
			SummaryStatus: models.SummaryPending,
			CourseInfo:    &models.CourseInfo{ID: courseID, Name: c.course.Name},
			CreatedAt:     &now,
		},
	}
	s.lectures[id] = l
	c.lectures = append(c.lectures, id)
	return l.lecture, nil
}

func (s *State) Lecture(owner int, id string) (models.Lecture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lectures[id]
	if !ok || l.owner != owner {
		return models.Lecture{}, ErrNotFound
	}
	return s.lectureViewLocked(l), nil
}

func (s *State) RenameLecture(owner int, id, name string) (models.Lecture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lectures[id]
	if !ok || l.owner != owner {
		return models.Lecture{}, ErrNotFound
	}
	l.lecture.Name = name
	return s.lectureViewLocked(l), nil
}

func (s *State) DeleteLecture(owner int, courseID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.ownedCourse(owner, courseID)
	if err != nil {
		return err
	}
	l, ok := s.lectures[id]
	if !ok || l.lecture.CourseID != courseID {
		return ErrNotFound
	}
	delete(s.lectures, id)
	c.lectures = removeID(c.lectures, id)
	return nil
}

// setJob records a job transition. It reports false when the lecture no
// longer exists.
func (s *State) setJob(id string, status models.SummaryStatus, summary string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lectures[id]
	if !ok {
		return false
	}
	l.lecture.SummaryStatus = status
	l.lecture.SummaryText = summary
	return true
}

func (s *State) ownedCourse(owner int, id string) (*courseRecord, error) {
	c, ok := s.courses[id]
	if !ok || c.owner != owner {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *State) courseViewLocked(c *courseRecord) models.Course {
	course := c.course
	course.Lectures = make([]models.Lecture, 0, len(c.lectures))
	for _, id := range c.lectures {
		if l, ok := s.lectures[id]; ok {
			course.Lectures = append(course.Lectures, s.lectureViewLocked(l))
		}
	}
	return course
}

// lectureViewLocked refreshes the embedded course name, which can change
// after upload.
func (s *State) lectureViewLocked(l *lectureRecord) models.Lecture {
	lec := l.lecture
	if c, ok := s.courses[lec.CourseID]; ok {
		lec.CourseInfo = &models.CourseInfo{ID: c.course.ID, Name: c.course.Name}
	}
	return lec
}

func (s *State) deleteCourseLocked(id string) {
	c, ok := s.courses[id]
	if !ok {
		return
	}
	for _, lid := range c.lectures {
		delete(s.lectures, lid)
	}
	delete(s.courses, id)
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
