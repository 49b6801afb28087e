// Package seed loads users, groups, memberships, and tasks from a YAML
// fixture file. Groups and tasks go through the engine so the same rules
// apply as for API callers: the creator of a group is its first admin, and
// group tasks snapshot the membership at the time they are created.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dalemusser/taskhub/internal/app/store/storeerr"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/dalemusser/taskhub/internal/app/system/inputval"
	"github.com/dalemusser/taskhub/internal/app/taskengine"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// File is the fixture document.
//
//	users:
//	  - name: Alice
//	    email: alice@example.com
//	groups:
//	  - name: Platform
//	    creator: alice@example.com
//	    members: [bob@example.com]
//	tasks:
//	  - title: Plan sprint
//	    creator: alice@example.com
//	    group: Platform
//	  - title: Write report
//	    creator: alice@example.com
//	    assignee: bob@example.com
//	    due_date: 2026-11-01
type File struct {
	Users  []User  `yaml:"users"`
	Groups []Group `yaml:"groups"`
	Tasks  []Task  `yaml:"tasks"`
}

type User struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type Group struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Creator     string   `yaml:"creator"`
	Members     []string `yaml:"members"`
}

// Task is individual when Assignee is set and a group task when Group is.
type Task struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Priority    string `yaml:"priority"`
	DueDate     string `yaml:"due_date"`
	Creator     string `yaml:"creator"`
	Assignee    string `yaml:"assignee"`
	Group       string `yaml:"group"`
}

// Parse decodes and checks a fixture document.
func Parse(data []byte) (File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return File{}, errors.New("seed: file is empty")
	}
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("seed: decode: %w", err)
	}
	f.normalize()
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// Load reads and parses the fixture file at path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("seed: read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func normEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (f *File) normalize() {
	for i := range f.Users {
		f.Users[i].Email = normEmail(f.Users[i].Email)
		f.Users[i].Name = strings.TrimSpace(f.Users[i].Name)
	}
	for i := range f.Groups {
		g := &f.Groups[i]
		g.Name = strings.TrimSpace(g.Name)
		g.Creator = normEmail(g.Creator)
		for j := range g.Members {
			g.Members[j] = normEmail(g.Members[j])
		}
	}
	for i := range f.Tasks {
		t := &f.Tasks[i]
		t.Creator = normEmail(t.Creator)
		t.Assignee = normEmail(t.Assignee)
		t.Group = strings.TrimSpace(t.Group)
	}
}

// Validate checks references inside the document. Field rules such as
// title length are left to the engine.
func (f File) Validate() error {
	users := map[string]bool{}
	for i, u := range f.Users {
		if u.Name == "" || u.Email == "" {
			return fmt.Errorf("seed: users[%d]: name and email are required", i)
		}
		if !inputval.IsValidEmail(u.Email) {
			return fmt.Errorf("seed: users[%d]: %q is not a valid email address", i, u.Email)
		}
		if users[u.Email] {
			return fmt.Errorf("seed: users[%d]: duplicate email %s", i, u.Email)
		}
		users[u.Email] = true
	}

	groups := map[string]bool{}
	for i, g := range f.Groups {
		if g.Name == "" {
			return fmt.Errorf("seed: groups[%d]: name is required", i)
		}
		if groups[g.Name] {
			return fmt.Errorf("seed: groups[%d]: duplicate group name %q", i, g.Name)
		}
		groups[g.Name] = true
		if !users[g.Creator] {
			return fmt.Errorf("seed: group %q: creator %q is not a listed user", g.Name, g.Creator)
		}
		for _, m := range g.Members {
			if !users[m] {
				return fmt.Errorf("seed: group %q: member %q is not a listed user", g.Name, m)
			}
		}
	}

	for i, t := range f.Tasks {
		if !users[t.Creator] {
			return fmt.Errorf("seed: tasks[%d]: creator %q is not a listed user", i, t.Creator)
		}
		switch {
		case t.Assignee != "" && t.Group != "":
			return fmt.Errorf("seed: tasks[%d]: set assignee or group, not both", i)
		case t.Assignee != "":
			if !users[t.Assignee] {
				return fmt.Errorf("seed: tasks[%d]: assignee %q is not a listed user", i, t.Assignee)
			}
		case t.Group != "":
			if !groups[t.Group] {
				return fmt.Errorf("seed: tasks[%d]: group %q is not a listed group", i, t.Group)
			}
		default:
			return fmt.Errorf("seed: tasks[%d]: assignee or group is required", i)
		}
	}
	return nil
}

// Result counts what Apply wrote.
type Result struct {
	UsersCreated  int
	UsersReused   int
	Groups        int
	GroupsReused  int
	Members       int
	Tasks         int
	TasksExisting int

	UserIDs  map[string]primitive.ObjectID
	GroupIDs map[string]primitive.ObjectID
}

// Apply writes f through repos and eng. Applying the same file twice
// writes nothing new: users are matched by email, groups by name among the
// groups the creator created, and tasks by title and target among the
// tasks the creator created. Missing members of a reused group are added.
func Apply(ctx context.Context, eng *taskengine.Engine, repos taskengine.Repos, f File, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	res := Result{
		UserIDs:  map[string]primitive.ObjectID{},
		GroupIDs: map[string]primitive.ObjectID{},
	}

	for _, u := range f.Users {
		created, err := repos.Users.Create(ctx, models.User{FullName: u.Name, Email: u.Email})
		switch {
		case err == nil:
			res.UserIDs[u.Email] = created.ID
			res.UsersCreated++
		case errors.Is(err, storeerr.ErrDuplicate):
			existing, gerr := repos.Users.GetByEmail(ctx, u.Email)
			if gerr != nil {
				return res, fmt.Errorf("seed: user %s: %w", u.Email, gerr)
			}
			res.UserIDs[u.Email] = existing.ID
			res.UsersReused++
		default:
			return res, fmt.Errorf("seed: user %s: %w", u.Email, err)
		}
	}

	for _, g := range f.Groups {
		creator := res.UserIDs[g.Creator]
		groupID, existing, err := ownedGroup(ctx, eng, creator, g.Name)
		if err != nil {
			return res, fmt.Errorf("seed: group %q: %w", g.Name, err)
		}
		have := map[primitive.ObjectID]bool{creator: true}
		if existing {
			details, err := eng.GetGroup(ctx, creator, groupID)
			if err != nil {
				return res, fmt.Errorf("seed: group %q: %w", g.Name, err)
			}
			for _, m := range details.Members {
				have[m.User.ID] = true
			}
			res.GroupsReused++
		} else {
			created, err := eng.CreateGroup(ctx, creator, taskengine.GroupInput{Name: g.Name, Description: g.Description})
			if err != nil {
				return res, fmt.Errorf("seed: group %q: %w", g.Name, err)
			}
			groupID = created.ID
			res.Groups++
		}
		res.GroupIDs[g.Name] = groupID

		for _, m := range g.Members {
			uid := res.UserIDs[m]
			if have[uid] {
				continue
			}
			if _, err := eng.AddMember(ctx, creator, groupID, uid); err != nil {
				return res, fmt.Errorf("seed: group %q: member %s: %w", g.Name, m, err)
			}
			have[uid] = true
			res.Members++
		}
		log.Info("seeded group", zap.String("group", g.Name), zap.Bool("reused", existing), zap.Int("members", len(g.Members)))
	}

	createdBy := map[primitive.ObjectID][]models.Task{}
	for i, t := range f.Tasks {
		due, err := httpjson.ParseDueDate(t.DueDate)
		if err != nil {
			return res, fmt.Errorf("seed: tasks[%d]: %w", i, err)
		}
		creator := res.UserIDs[t.Creator]
		if _, ok := createdBy[creator]; !ok {
			if createdBy[creator], err = eng.TasksCreatedBy(ctx, creator); err != nil {
				return res, fmt.Errorf("seed: tasks[%d]: %w", i, err)
			}
		}
		target := res.UserIDs[t.Assignee]
		if t.Group != "" {
			target = res.GroupIDs[t.Group]
		}
		if hasTask(createdBy[creator], t.Title, target) {
			res.TasksExisting++
			continue
		}

		if t.Group != "" {
			_, err = eng.CreateGroupTask(ctx, creator, target, taskengine.GroupTaskInput{
				Title:       t.Title,
				Description: t.Description,
				Priority:    models.Priority(t.Priority),
				DueDate:     due,
			})
		} else {
			_, err = eng.CreateIndividualTask(ctx, creator, taskengine.IndividualTaskInput{
				Title:          t.Title,
				Description:    t.Description,
				Priority:       models.Priority(t.Priority),
				DueDate:        due,
				AssignedUserID: target,
			})
		}
		if err != nil {
			return res, fmt.Errorf("seed: tasks[%d] %q: %w", i, t.Title, err)
		}
		res.Tasks++
	}
	return res, nil
}

// ownedGroup finds the group named name that creator created.
func ownedGroup(ctx context.Context, eng *taskengine.Engine, creator primitive.ObjectID, name string) (primitive.ObjectID, bool, error) {
	mine, err := eng.MyGroups(ctx, creator)
	if err != nil {
		return primitive.NilObjectID, false, err
	}
	folded := text.Fold(name)
	for _, g := range mine {
		if g.Group.CreatedBy == creator && g.Group.NameCI == folded {
			return g.Group.ID, true, nil
		}
	}
	return primitive.NilObjectID, false, nil
}

// hasTask reports whether tasks holds one titled title aimed at target,
// which is the assignee of an individual task or the group of a group task.
func hasTask(tasks []models.Task, title string, target primitive.ObjectID) bool {
	for _, t := range tasks {
		if t.Title != strings.TrimSpace(title) {
			continue
		}
		if t.IsAssignedTo(target) || (t.GroupID != nil && *t.GroupID == target) {
			return true
		}
	}
	return false
}
