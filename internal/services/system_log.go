package services

import (
	"encoding/json"
	"os"
	"time"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/config"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/models"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var globalDB *gorm.DB

func InitSystemLogger(db *gorm.DB) {
	globalDB = db
}

func LogInfo(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeLog("info", module, action, message, userID, ip, userAgent, extra)
}

func LogWarning(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeLog("warning", module, action, message, userID, ip, userAgent, extra)
}

func LogError(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeLog("error", module, action, message, userID, ip, userAgent, extra)
}

func writeLog(level, module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	if globalDB == nil {
		return
	}

	var extraStr string
	if extra != nil {
		if b, err := json.Marshal(extra); err == nil {
			extraStr = string(b)
		}
	}

	entry := &models.SystemLog{
		Level:     level,
		Module:    module,
		Action:    action,
		Message:   message,
		UserID:    userID,
		IP:        ip,
		UserAgent: userAgent,
		Extra:     extraStr,
		CreatedAt: time.Now(),
	}
	annotateLog(entry, extra)
	if err := globalDB.Create(entry).Error; err != nil {
		logger.Warn().Err(err).Str("module", module).Str("action", action).Msg("system log write failed")
	}
}

// annotateLog lifts the work item and request id out of known extras so
// they can be filtered on.
func annotateLog(entry *models.SystemLog, extra interface{}) {
	switch v := extra.(type) {
	case *AutomationResult:
		id := v.EntityID
		entry.EntityType = v.EntityType
		entry.EntityID = &id
	case map[string]interface{}:
		if rid, ok := v["request_id"].(string); ok {
			entry.RequestID = rid
		}
		if entityType, ok := v["entity_type"].(string); ok {
			entry.EntityType = entityType
			if id, ok := v["entity_id"].(uint); ok {
				entry.EntityID = &id
			}
		}
	}
}

type SystemLogService struct {
	db *gorm.DB
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db}
}

type SystemLogListRequest struct {
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Level      string `form:"level"`
	Module     string `form:"module"`
	Action     string `form:"action"`
	EntityType string `form:"entity_type"`
	EntityID   uint   `form:"entity_id"`
	RequestID  string `form:"request_id"`
	StartDate  string `form:"start_date"`
	EndDate    string `form:"end_date"`
	Search     string `form:"search"`
}

type SystemLogListResponse struct {
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Items    []models.SystemLog `json:"items"`
}

func (s *SystemLogService) List(req *SystemLogListRequest) (*SystemLogListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var logs []models.SystemLog
	var total int64

	query := s.db.Model(&models.SystemLog{})

	if req.Level != "" {
		query = query.Where("level = ?", req.Level)
	}
	if req.Module != "" {
		query = query.Where("module = ?", req.Module)
	}
	if req.Action != "" {
		query = query.Where("action LIKE ?", "%"+req.Action+"%")
	}
	if req.EntityType != "" {
		query = query.Where("entity_type = ?", req.EntityType)
	}
	if req.EntityID != 0 {
		query = query.Where("entity_id = ?", req.EntityID)
	}
	if req.RequestID != "" {
		query = query.Where("request_id = ?", req.RequestID)
	}
	if req.StartDate != "" {
		query = query.Where("created_at >= ?", req.StartDate)
	}
	if req.EndDate != "" {
		query = query.Where("created_at <= ?", req.EndDate+" 23:59:59")
	}
	if req.Search != "" {
		query = query.Where("message LIKE ?", "%"+req.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	return &SystemLogListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    logs,
	}, nil
}

func (s *SystemLogService) GetModules() ([]string, error) {
	var modules []string
	if err := s.db.Model(&models.SystemLog{}).Distinct("module").Order("module").Pluck("module", &modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

// CleanupOldLogs deletes logs older than retentionDays and returns the count.
func (s *SystemLogService) CleanupOldLogs(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoffTime := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoffTime).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// TryAcquireLock takes the named scheduler lock for ttl. It returns false
// when another instance holds an unexpired lock.
func (s *SystemLogService) TryAcquireLock(name, key, owner string, ttl time.Duration) (bool, error) {
	now := time.Now()
	acquired := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lock_name = ? AND lock_key = ? AND expires_at < ?", name, key, now).
			Delete(&models.SchedulerLock{}).Error; err != nil {
			return err
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.SchedulerLock{
			LockName:  name,
			LockKey:   key,
			LockedBy:  owner,
			LockedAt:  now,
			ExpiresAt: now.Add(ttl),
		})
		if res.Error != nil {
			return res.Error
		}
		acquired = res.RowsAffected == 1
		return nil
	})
	return acquired, err
}

// LogCleanupScheduler runs CleanupOldLogs on a cron schedule.
type LogCleanupScheduler struct {
	service *SystemLogService
	cfg     config.LogConfig
	cron    *cron.Cron
	owner   string
}

func NewLogCleanupScheduler(db *gorm.DB, cfg config.LogConfig) *LogCleanupScheduler {
	owner, _ := os.Hostname()
	if owner == "" {
		owner = "unknown"
	}
	return &LogCleanupScheduler{
		service: NewSystemLogService(db),
		cfg:     cfg,
		cron:    cron.New(),
		owner:   owner,
	}
}

// Start schedules the cleanup job. Retention <= 0 disables it.
func (s *LogCleanupScheduler) Start() error {
	if s.cfg.RetentionDays <= 0 {
		logger.Infof("[SystemLog] Log cleanup disabled (retention_days <= 0)")
		return nil
	}
	if _, err := s.cron.AddFunc(s.cfg.CleanupCron, s.RunOnce); err != nil {
		return err
	}
	s.cron.Start()
	logger.Infof("[SystemLog] Cleanup scheduled (cron: %s, retention: %d days)", s.cfg.CleanupCron, s.cfg.RetentionDays)
	return nil
}

func (s *LogCleanupScheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce performs one cleanup if this instance wins today's lock.
func (s *LogCleanupScheduler) RunOnce() {
	day := time.Now().Format("2006-01-02")
	ok, err := s.service.TryAcquireLock("system_log_cleanup", day, s.owner, time.Hour)
	if err != nil {
		logger.Errorf("[SystemLog] Failed to acquire cleanup lock: %v", err)
		return
	}
	if !ok {
		logger.Debug().Str("day", day).Msg("log cleanup already ran elsewhere")
		return
	}

	deleted, err := s.service.CleanupOldLogs(s.cfg.RetentionDays)
	if err != nil {
		logger.Errorf("[SystemLog] Failed to cleanup old logs: %v", err)
		return
	}
	if deleted > 0 {
		logger.Infof("[SystemLog] Cleaned up %d logs older than %d days", deleted, s.cfg.RetentionDays)
	}
}
