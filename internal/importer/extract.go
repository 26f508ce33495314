package importer

import (
	"strconv"

	"github.com/balkashynov/taigit/internal/hosting"
	"github.com/balkashynov/taigit/internal/models"
	"github.com/balkashynov/taigit/internal/parser"
	"github.com/balkashynov/taigit/internal/taiga"
)

// collector accumulates anomalies for the row being extracted
type collector struct {
	entity    string
	row       string
	anomalies []Anomaly
}

func (c *collector) add(a *parser.Anomaly) {
	if a != nil {
		c.anomalies = append(c.anomalies, Anomaly{Entity: c.entity, Row: c.row, Anomaly: *a})
	}
}

func (c *collector) missing(field, value string) {
	c.add(&parser.Anomaly{Field: field, Value: value, Reason: "missing key, row skipped"})
}

// requiredInt parses an integer key column; ok is false when the row must be skipped
func (c *collector) requiredInt(rec taiga.Record, column string) (int, bool) {
	n, a := parser.ParseOptionalInt(column, rec.Get(column))
	if a != nil || n == nil {
		c.missing(column, rec.Get(column))
		return 0, false
	}
	return *n, true
}

func extractSprint(rec taiga.Record, c *collector) (models.Sprint, bool) {
	name := rec.Get("name")
	c.row = name
	if parser.IsPlaceholder(name) {
		c.missing("name", name)
		return models.Sprint{}, false
	}

	start, a := parser.FormatTrackerDate(rec.Get("estimated_start"))
	c.add(a)
	end, a := parser.FormatTrackerDate(rec.Get("estimated_finish"))
	c.add(a)
	closed, a := parser.ParseBool("closed", rec.Get("closed"))
	c.add(a)

	return models.Sprint{Name: name, Start: start, End: end, Closed: closed}, true
}

// memberLabels resolves the label of every username in a batch. A label
// claimed by several users falls back to each one's own username.
func memberLabels(records []taiga.Record) map[string]string {
	labels := make(map[string]string, len(records))
	claims := make(map[string]map[string]bool)
	for _, rec := range records {
		username := rec.Get("username")
		label := parser.ResolveMemberName(username, rec.Get("full_name"))
		labels[username] = label
		if claims[label] == nil {
			claims[label] = make(map[string]bool)
		}
		claims[label][username] = true
	}

	for username, label := range labels {
		if len(claims[label]) > 1 && username != "" && username != label {
			labels[username] = username
		}
	}
	return labels
}

// extractMember labels a membership; pending invitations have no user yet
func extractMember(rec taiga.Record, labels map[string]string, c *collector) (models.Member, bool) {
	name, ok := labels[rec.Get("username")]
	if !ok {
		name = parser.ResolveMemberName(rec.Get("username"), rec.Get("full_name"))
	}
	c.row = name
	if parser.IsPlaceholder(name) {
		c.missing("username", rec.Get("username"))
		return models.Member{}, false
	}

	id, a := parser.ParseOptionalInt("user", rec.Get("user"))
	c.add(a)

	return models.Member{Username: name, TaigaID: id}, true
}

func extractUserStory(rec taiga.Record, c *collector) (models.UserStory, bool) {
	c.row = rec.Get("id")
	id, ok := c.requiredInt(rec, "id")
	if !ok {
		return models.UserStory{}, false
	}
	ref, ok := c.requiredInt(rec, "ref")
	if !ok {
		return models.UserStory{}, false
	}

	closed, a := parser.ParseBool("is_closed", rec.Get("is_closed"))
	c.add(a)
	points, a := parser.ParseOptionalFloat("total_points", rec.Get("total_points"))
	c.add(a)

	return models.UserStory{
		ID:         id,
		UsNum:      ref,
		IsComplete: closed,
		Sprint:     parser.NullIfPlaceholder(rec.Get("milestone_name")),
		Points:     points,
		Subject:    rec.Get("subject"),
	}, true
}

// extractTask resolves the task's user story id to its ref and the assignee
// user id to a member label. Unresolved ids become null.
func extractTask(rec taiga.Record, storyRefs map[int]int, memberNames map[int]string, c *collector) (models.Task, bool) {
	c.row = rec.Get("id")
	id, ok := c.requiredInt(rec, "id")
	if !ok {
		return models.Task{}, false
	}
	ref, ok := c.requiredInt(rec, "ref")
	if !ok {
		return models.Task{}, false
	}

	closed, a := parser.ParseBool("is_closed", rec.Get("is_closed"))
	c.add(a)

	task := models.Task{ID: id, TaskNum: ref, IsComplete: closed, Subject: rec.Get("subject")}

	storyID, a := parser.ParseOptionalInt("user_story", rec.Get("user_story"))
	c.add(a)
	if storyID != nil {
		if usNum, ok := storyRefs[*storyID]; ok {
			task.UsNum = &usNum
		} else {
			c.add(&parser.Anomaly{Field: "user_story", Value: strconv.Itoa(*storyID), Reason: "unknown user story"})
		}
	}

	userID, a := parser.ParseOptionalInt("assigned_to", rec.Get("assigned_to"))
	c.add(a)
	if userID != nil {
		if name, ok := memberNames[*userID]; ok {
			task.Assignee = &name
		} else {
			c.add(&parser.Anomaly{Field: "assigned_to", Value: strconv.Itoa(*userID), Reason: "unknown member"})
		}
	}

	return task, true
}

func extractCommit(raw hosting.RawCommit, p hosting.Provider, known []string, c *collector) (models.Commit, bool) {
	c.row = raw.SHA
	if parser.IsPlaceholder(raw.SHA) {
		c.missing("id", raw.SHA)
		return models.Commit{}, false
	}

	taskNum, a := parser.ExtractTaskRef(raw.Message)
	c.add(a)
	at, a := parser.LocalizeTimestamp(raw.Timestamp)
	c.add(a)

	return models.Commit{
		ID:        raw.SHA,
		Repo:      p.Repo(),
		Site:      p.Site(),
		TaskNum:   taskNum,
		Committer: parser.ResolveContributor(known, raw.Login, raw.Email),
		Date:      at.Date,
		UTCTime:   at.UTC,
		Message:   raw.Message,
		URL:       raw.URL,
	}, true
}

// StoryRefs maps user story ids to their ref numbers
func StoryRefs(stories []models.UserStory) map[int]int {
	refs := make(map[int]int, len(stories))
	for _, u := range stories {
		refs[u.ID] = u.UsNum
	}
	return refs
}

// MemberNames maps Taiga user ids to member labels
func MemberNames(members []models.Member) map[int]string {
	names := make(map[int]string, len(members))
	for _, m := range members {
		if m.TaigaID != nil {
			names[*m.TaigaID] = m.Username
		}
	}
	return names
}
