// Package mongo is a records.Store on MongoDB. Each record kind has its own
// collection; calendar dates are stored as YYYY-MM-DD strings so range
// filters compare lexically.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/records"
)

const (
	EmployeeCollection   = "employees"
	ShiftCollection      = "shifts"
	AssignmentCollection = "shift_assignments"
	RosterCollection     = "roster_entries"
	AttendanceCollection = "attendance"
	LeaveCollection      = "leaves"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	owned  bool
}

var _ records.Store = (*Store)(nil)

// Connect dials uri, pings the primary and returns a store on database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s := &Store{client: client, db: client.Database(database), owned: true}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// NewWithDatabase wraps db without owning its client.
func NewWithDatabase(db *mongo.Database) *Store {
	return &Store{client: db.Client(), db: db}
}

// Close disconnects the client when the store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

// EnsureIndexes creates the lookup indexes used by the read methods.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		AssignmentCollection: {
			{Keys: bson.D{{Key: "scope", Value: 1}, {Key: "employee_id", Value: 1}}},
			{Keys: bson.D{{Key: "scope", Value: 1}, {Key: "manager_id", Value: 1}}},
			{Keys: bson.D{{Key: "scope", Value: 1}, {Key: "department", Value: 1}}},
		},
		AttendanceCollection: {
			{Keys: bson.D{{Key: "employee_id", Value: 1}, {Key: "date", Value: 1}}},
		},
		LeaveCollection: {
			{Keys: bson.D{{Key: "employee_id", Value: 1}, {Key: "start_date", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// =============================================================================
// DOCUMENTS
// =============================================================================

type employeeDoc struct {
	ID        string `bson:"_id"`
	Name      string `bson:"name"`
	ManagerID string `bson:"manager_id"`
	Role      string `bson:"role"`
}

type shiftDoc struct {
	ID                 string   `bson:"_id"`
	Name               string   `bson:"name"`
	StartTime          string   `bson:"start_time"`
	EndTime            string   `bson:"end_time"`
	GracePeriodMinutes int      `bson:"grace_period_minutes"`
	WorkingDays        []string `bson:"working_days"`
	IsNightShift       bool     `bson:"is_night_shift"`
}

type assignmentDoc struct {
	ID            string `bson:"_id"`
	ShiftID       string `bson:"shift_id"`
	Scope         string `bson:"scope"`
	EmployeeID    string `bson:"employee_id"`
	ManagerID     string `bson:"manager_id"`
	Department    string `bson:"department"`
	Type          string `bson:"assignment_type"`
	EffectiveDate string `bson:"effective_date,omitempty"`
	StartDate     string `bson:"start_date,omitempty"`
	EndDate       string `bson:"end_date,omitempty"`
	IsActive      bool   `bson:"is_active"`
}

// Roster and attendance documents are keyed on employee and date so a
// replace upserts the single record for that day.
type rosterDoc struct {
	Key         string `bson:"_id"`
	RecordID    string `bson:"record_id"`
	EmployeeID  string `bson:"employee_id"`
	Date        string `bson:"date"`
	ShiftID     string `bson:"shift_id"`
	IsWeeklyOff bool   `bson:"is_weekly_off"`
}

type attendanceDoc struct {
	Key         string     `bson:"_id"`
	RecordID    string     `bson:"record_id"`
	EmployeeID  string     `bson:"employee_id"`
	Date        string     `bson:"date"`
	CheckIn     *time.Time `bson:"check_in,omitempty"`
	CheckOut    *time.Time `bson:"check_out,omitempty"`
	Status      string     `bson:"status"`
	IsLate      bool       `bson:"is_late"`
	IsEarlyExit bool       `bson:"is_early_exit"`
}

type leaveDoc struct {
	ID         string `bson:"_id"`
	EmployeeID string `bson:"employee_id"`
	StartDate  string `bson:"start_date"`
	EndDate    string `bson:"end_date"`
	LeaveType  string `bson:"leave_type"`
	Status     string `bson:"status"`
}

func dayKey(employeeID string, date calendar.Date) string {
	return employeeID + "|" + date.String()
}

func parseDate(s string) (calendar.Date, error) {
	if s == "" {
		return calendar.Date{}, nil
	}
	return calendar.ParseDate(s)
}

// =============================================================================
// SEEDING
// =============================================================================

func (s *Store) replace(ctx context.Context, coll, id string, doc any) error {
	_, err := s.db.Collection(coll).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert %s %q: %w", coll, id, err)
	}
	return nil
}

func (s *Store) SaveEmployee(ctx context.Context, e records.Employee) error {
	return s.replace(ctx, EmployeeCollection, e.ID, employeeDoc(e))
}

func (s *Store) SaveShift(ctx context.Context, sh records.ShiftDefinition) error {
	return s.replace(ctx, ShiftCollection, sh.ID, shiftDoc{
		ID: sh.ID, Name: sh.Name, StartTime: sh.StartTime, EndTime: sh.EndTime,
		GracePeriodMinutes: sh.GracePeriodMinutes, WorkingDays: sh.WorkingDays.Names(), IsNightShift: sh.IsNightShift,
	})
}

func (s *Store) SaveAssignment(ctx context.Context, a records.ShiftAssignment) error {
	return s.replace(ctx, AssignmentCollection, a.ID, assignmentDoc{
		ID: a.ID, ShiftID: a.ShiftID, Scope: string(a.Scope),
		EmployeeID: a.EmployeeID, ManagerID: a.ManagerID, Department: a.Department,
		Type: string(a.Type), EffectiveDate: a.EffectiveDate.String(),
		StartDate: a.StartDate.String(), EndDate: a.EndDate.String(), IsActive: a.IsActive,
	})
}

func (s *Store) SaveRosterEntry(ctx context.Context, r records.RosterEntry) error {
	key := dayKey(r.EmployeeID, r.Date)
	return s.replace(ctx, RosterCollection, key, rosterDoc{
		Key: key, RecordID: r.ID, EmployeeID: r.EmployeeID, Date: r.Date.String(),
		ShiftID: r.ShiftID, IsWeeklyOff: r.IsWeeklyOff,
	})
}

func (s *Store) SaveAttendance(ctx context.Context, a records.AttendanceRecord) error {
	key := dayKey(a.EmployeeID, a.Date)
	return s.replace(ctx, AttendanceCollection, key, attendanceDoc{
		Key: key, RecordID: a.ID, EmployeeID: a.EmployeeID, Date: a.Date.String(),
		CheckIn: a.CheckIn, CheckOut: a.CheckOut, Status: string(a.Status),
		IsLate: a.IsLate, IsEarlyExit: a.IsEarlyExit,
	})
}

func (s *Store) SaveLeave(ctx context.Context, l records.LeaveRecord) error {
	return s.replace(ctx, LeaveCollection, l.ID, leaveDoc{
		ID: l.ID, EmployeeID: l.EmployeeID, StartDate: l.StartDate.String(), EndDate: l.EndDate.String(),
		LeaveType: l.LeaveType, Status: string(l.Status),
	})
}

// =============================================================================
// LOOKUPS
// =============================================================================

func (s *Store) GetEmployee(ctx context.Context, id string) (records.Employee, error) {
	var doc employeeDoc
	err := s.db.Collection(EmployeeCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return records.Employee{}, records.EmployeeNotFound(id)
	}
	if err != nil {
		return records.Employee{}, err
	}
	return records.Employee(doc), nil
}

func (s *Store) GetShift(ctx context.Context, id string) (records.ShiftDefinition, error) {
	var doc shiftDoc
	err := s.db.Collection(ShiftCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return records.ShiftDefinition{}, records.ShiftNotFound(id)
	}
	if err != nil {
		return records.ShiftDefinition{}, err
	}
	days, err := calendar.ParseWeekdaySet(doc.WorkingDays)
	if err != nil {
		return records.ShiftDefinition{}, fmt.Errorf("shift %q: %w", id, err)
	}
	return records.ShiftDefinition{
		ID: doc.ID, Name: doc.Name, StartTime: doc.StartTime, EndTime: doc.EndTime,
		GracePeriodMinutes: doc.GracePeriodMinutes, WorkingDays: days, IsNightShift: doc.IsNightShift,
	}, nil
}

var subjectField = map[records.AssignmentScope]string{
	records.ScopeEmployee:   "employee_id",
	records.ScopeTeam:       "manager_id",
	records.ScopeDepartment: "department",
}

func (s *Store) ListAssignments(ctx context.Context, scope records.AssignmentScope, subject string) ([]records.ShiftAssignment, error) {
	field, ok := subjectField[scope]
	if !ok {
		return nil, fmt.Errorf("unknown assignment scope %q", scope)
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.db.Collection(AssignmentCollection).Find(ctx, bson.M{"scope": string(scope), field: subject}, opts)
	if err != nil {
		return nil, err
	}
	var docs []assignmentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]records.ShiftAssignment, 0, len(docs))
	for _, d := range docs {
		a := records.ShiftAssignment{
			ID: d.ID, ShiftID: d.ShiftID, Scope: records.AssignmentScope(d.Scope),
			EmployeeID: d.EmployeeID, ManagerID: d.ManagerID, Department: d.Department,
			Type: records.AssignmentType(d.Type), IsActive: d.IsActive,
		}
		if a.EffectiveDate, err = parseDate(d.EffectiveDate); err != nil {
			return nil, err
		}
		if a.StartDate, err = parseDate(d.StartDate); err != nil {
			return nil, err
		}
		if a.EndDate, err = parseDate(d.EndDate); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) GetRosterEntry(ctx context.Context, employeeID string, date calendar.Date) (records.RosterEntry, bool, error) {
	var doc rosterDoc
	err := s.db.Collection(RosterCollection).FindOne(ctx, bson.M{"_id": dayKey(employeeID, date)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return records.RosterEntry{}, false, nil
	}
	if err != nil {
		return records.RosterEntry{}, false, err
	}
	return records.RosterEntry{
		ID: doc.RecordID, EmployeeID: doc.EmployeeID, Date: date,
		ShiftID: doc.ShiftID, IsWeeklyOff: doc.IsWeeklyOff,
	}, true, nil
}

func (s *Store) ListAttendance(ctx context.Context, employeeID string, period calendar.Period) ([]records.AttendanceRecord, error) {
	filter := bson.M{
		"employee_id": employeeID,
		"date":        bson.M{"$gte": period.Start.String(), "$lte": period.End.String()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := s.db.Collection(AttendanceCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []attendanceDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]records.AttendanceRecord, 0, len(docs))
	for _, d := range docs {
		date, err := calendar.ParseDate(d.Date)
		if err != nil {
			return nil, err
		}
		out = append(out, records.AttendanceRecord{
			ID: d.RecordID, EmployeeID: d.EmployeeID, Date: date,
			CheckIn: d.CheckIn, CheckOut: d.CheckOut, Status: records.AttendanceStatus(d.Status),
			IsLate: d.IsLate, IsEarlyExit: d.IsEarlyExit,
		})
	}
	return out, nil
}

func (s *Store) ListLeaves(ctx context.Context, employeeID string, period calendar.Period, statuses ...records.LeaveStatus) ([]records.LeaveRecord, error) {
	filter := bson.M{
		"employee_id": employeeID,
		"start_date":  bson.M{"$lte": period.End.String()},
		"end_date":    bson.M{"$gte": period.Start.String()},
	}
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, st := range statuses {
			names[i] = string(st)
		}
		filter["status"] = bson.M{"$in": names}
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.db.Collection(LeaveCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []leaveDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]records.LeaveRecord, 0, len(docs))
	for _, d := range docs {
		start, err := calendar.ParseDate(d.StartDate)
		if err != nil {
			return nil, err
		}
		end, err := calendar.ParseDate(d.EndDate)
		if err != nil {
			return nil, err
		}
		out = append(out, records.LeaveRecord{
			ID: d.ID, EmployeeID: d.EmployeeID, StartDate: start, EndDate: end,
			LeaveType: d.LeaveType, Status: records.LeaveStatus(d.Status),
		})
	}
	return out, nil
}
