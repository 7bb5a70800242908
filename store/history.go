package store

import (
	"time"
)

// MissionHistory is one lifecycle row for a mission. Missions live in
// memory; this table is the durable trail that survives a restart.
type MissionHistory struct {
	ID          int64     `json:"id"`
	MissionID   string    `json:"mission_id"`
	Name        string    `json:"name"`
	RobotSerial string    `json:"robot_serial"`
	Status      string    `json:"status"`
	StepIndex   int       `json:"step_index"`
	Detail      string    `json:"detail"`
	CreatedAt   time.Time `json:"created_at"`
}

func (db *DB) AppendMissionHistory(missionID, name, robotSerial, status string, stepIndex int, detail string) error {
	_, err := db.Exec(db.Q(`INSERT INTO mission_history (mission_id, name, robot_serial, status, step_index, detail) VALUES (?, ?, ?, ?, ?, ?)`),
		missionID, name, robotSerial, status, stepIndex, detail)
	return err
}

func (db *DB) ListMissionHistory(missionID string) ([]*MissionHistory, error) {
	rows, err := db.Query(db.Q(`SELECT id, mission_id, name, robot_serial, status, step_index, detail, created_at FROM mission_history WHERE mission_id=? ORDER BY id`), missionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*MissionHistory
	for rows.Next() {
		var h MissionHistory
		var createdAt any
		if err := rows.Scan(&h.ID, &h.MissionID, &h.Name, &h.RobotSerial, &h.Status, &h.StepIndex, &h.Detail, &createdAt); err != nil {
			return nil, err
		}
		h.CreatedAt = parseTime(createdAt)
		entries = append(entries, &h)
	}
	return entries, rows.Err()
}

func (db *DB) ListRecentHistory(limit int) ([]*MissionHistory, error) {
	rows, err := db.Query(db.Q(`SELECT id, mission_id, name, robot_serial, status, step_index, detail, created_at FROM mission_history ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*MissionHistory
	for rows.Next() {
		var h MissionHistory
		var createdAt any
		if err := rows.Scan(&h.ID, &h.MissionID, &h.Name, &h.RobotSerial, &h.Status, &h.StepIndex, &h.Detail, &createdAt); err != nil {
			return nil, err
		}
		h.CreatedAt = parseTime(createdAt)
		entries = append(entries, &h)
	}
	return entries, rows.Err()
}
