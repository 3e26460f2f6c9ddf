package storage

import "time"

// TaskStatus is a value in the Task lifecycle DAG:
// PENDING -> RUNNING -> {COMPLETED, FAILED, CANCELLED}.
type TaskStatus string

const (
	TaskPending   TaskStatus = "PENDING"
	TaskRunning   TaskStatus = "RUNNING"
	TaskCompleted TaskStatus = "COMPLETED"
	TaskFailed    TaskStatus = "FAILED"
	TaskCancelled TaskStatus = "CANCELLED"
)

// IsTerminal reports whether status has no outgoing transitions.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// TaskKind identifies the workload a Task represents.
type TaskKind string

const (
	KindStylesUpload TaskKind = "STYLES_UPLOAD"
	KindStoresUpload TaskKind = "STORES_UPLOAD"
	KindSkusUpload   TaskKind = "SKUS_UPLOAD"
	KindSalesUpload  TaskKind = "SALES_UPLOAD"

	KindStylesDownload TaskKind = "STYLES_DOWNLOAD"
	KindStoresDownload TaskKind = "STORES_DOWNLOAD"
	KindSkusDownload   TaskKind = "SKUS_DOWNLOAD"
	KindSalesDownload  TaskKind = "SALES_DOWNLOAD"
	KindNoosDownload   TaskKind = "NOOS_DOWNLOAD"

	KindAlgorithmRun TaskKind = "ALGORITHM_RUN"
)

// Task is a persisted record of one asynchronous unit of work.
type Task struct {
	ID                    uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind                  TaskKind   `gorm:"index;not null" json:"kind"`
	Status                TaskStatus `gorm:"index;not null" json:"status"`
	Progress              float64    `json:"progress"`
	Phase                 string     `json:"phase"`
	Message               string     `json:"message"`
	FileName              string     `json:"fileName"`
	TotalRecords          int64      `json:"totalRecords"`
	ProcessedRecords      int64      `json:"processedRecords"`
	ErrorCount            int64      `json:"errorCount"`
	ErrorMessage          string     `json:"errorMessage"`
	ResultPath            string     `json:"resultPath"`
	ResultChecksum        string     `json:"resultChecksum"`
	CancellationRequested bool       `json:"cancellationRequested"`
	Parameters            string     `json:"parameters"`
	CreatedAt             time.Time  `json:"createdAt"`
	StartedAt             *time.Time `json:"startedAt"`
	EndedAt               *time.Time `json:"endedAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

func (Task) TableName() string { return "tasks" }

// Style is master data describing a sellable design.
type Style struct {
	ID          uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	StyleCode   string  `gorm:"uniqueIndex;not null" json:"styleCode"`
	Brand       string  `json:"brand"`
	Category    string  `gorm:"index" json:"category"`
	SubCategory string  `json:"subCategory"`
	Mrp         float64 `json:"mrp"`
	Gender      string  `json:"gender"`
}

func (Style) TableName() string { return "styles" }

// Sku is master data for one sellable size variant of a Style.
type Sku struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Sku     string `gorm:"uniqueIndex;not null" json:"sku"`
	StyleID uint64 `gorm:"index;not null" json:"styleId"`
	Size    string `json:"size"`
}

func (Sku) TableName() string { return "skus" }

// Store is master data for one selling location.
type Store struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Branch string `gorm:"uniqueIndex;not null" json:"branch"`
	City   string `json:"city"`
}

func (Store) TableName() string { return "stores" }

// Sale is a single transactional sales record. The table is subject to
// complete-replacement semantics on every sales upload (§4.7).
type Sale struct {
	ID       uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Date     time.Time `gorm:"index" json:"date"`
	SkuID    uint64    `gorm:"index;not null" json:"skuId"`
	StoreID  uint64    `gorm:"index;not null" json:"storeId"`
	Quantity int       `json:"quantity"`
	Discount float64   `json:"discount"`
	Revenue  float64   `json:"revenue"`
}

func (Sale) TableName() string { return "sales" }

// NoosType is the classification a style is assigned in a NOOS run.
type NoosType string

const (
	NoosCore       NoosType = "core"
	NoosBestseller NoosType = "bestseller"
	NoosFashion    NoosType = "fashion"
)

// NoosResult is one style's classification output from a single
// algorithm run, identified by AlgorithmRunID (= producing Task.ID).
type NoosResult struct {
	ID                   uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	AlgorithmRunID       uint64    `gorm:"index;not null" json:"algorithmRunId"`
	Category             string    `gorm:"index" json:"category"`
	StyleCode            string    `gorm:"index" json:"styleCode"`
	StyleROS             float64   `json:"styleROS"`
	Type                 NoosType  `gorm:"index" json:"type"`
	StyleRevContribution float64   `json:"styleRevContribution"`
	TotalQuantitySold    int64     `json:"totalQuantitySold"`
	TotalRevenue         float64   `json:"totalRevenue"`
	DaysAvailable        int       `json:"daysAvailable"`
	DaysWithSales        int       `json:"daysWithSales"`
	AvgDiscount          float64   `json:"avgDiscount"`
	CalculatedAt         time.Time `json:"calculatedAt"`
}

func (NoosResult) TableName() string { return "noos_results" }

// DaysAvailablePolicy selects how NoosEngine computes a style's
// daysAvailable denominator. See SPEC_FULL.md §13.1.
type DaysAvailablePolicy string

const (
	PolicyDistinctSaleDays DaysAvailablePolicy = "distinct_sale_days"
	PolicyAnalysisWindow   DaysAvailablePolicy = "analysis_window"
	PolicyCatalogueDays    DaysAvailablePolicy = "catalogue_days"
)

// AlgorithmParameters is a named, versioned parameter set consumed by
// NoosEngine. Exactly zero or one row may have IsActive = true.
type AlgorithmParameters struct {
	ID                     uint64              `gorm:"primaryKey;autoIncrement" json:"id"`
	ParameterSet           string              `gorm:"uniqueIndex;not null" json:"parameterSet"`
	LiquidationThreshold   float64             `json:"liquidationThreshold"`
	BestsellerMultiplier   float64             `json:"bestsellerMultiplier"`
	MinVolumeThreshold     float64             `json:"minVolumeThreshold"`
	ConsistencyThreshold   float64             `json:"consistencyThreshold"`
	AnalysisStartDate      *time.Time          `json:"analysisStartDate"`
	AnalysisEndDate        *time.Time          `json:"analysisEndDate"`
	CoreDurationMonths     int                 `json:"coreDurationMonths"`
	BestsellerDurationDays int                 `json:"bestsellerDurationDays"`
	DaysAvailablePolicy    DaysAvailablePolicy `gorm:"default:distinct_sale_days" json:"daysAvailablePolicy"`
	IsActive               bool                `gorm:"index" json:"isActive"`
	CreatedAt              time.Time           `json:"createdAt"`
	UpdatedAt              time.Time           `json:"updatedAt"`
}

func (AlgorithmParameters) TableName() string { return "algorithm_parameters" }

// AuditLog is an append-only record of one entity mutation.
type AuditLog struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp  time.Time `gorm:"index" json:"timestamp"`
	EntityType string    `gorm:"index" json:"entityType"`
	EntityID   string    `json:"entityId"`
	Action     string    `json:"action"`
	Details    string    `json:"details"`
	ModifiedBy string    `json:"modifiedBy"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// AppSetting is a generic key/value row backing ConfigManager.
type AppSetting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

func (AppSetting) TableName() string { return "app_settings" }

// AllModels lists every entity AutoMigrate must create. Kept as one
// slice so callers (storage.Open, tests) never drift from the model set.
func AllModels() []interface{} {
	return []interface{}{
		&Task{},
		&Style{},
		&Sku{},
		&Store{},
		&Sale{},
		&NoosResult{},
		&AlgorithmParameters{},
		&AuditLog{},
		&AppSetting{},
	}
}
