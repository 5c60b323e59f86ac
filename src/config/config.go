package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Config 结构体定义了应用程序的配置结构
type Config struct {
	DataPath        string   `json:"data_path"`        // 订单数据文件路径(csv/xlsx)
	DataDir         string   `json:"data_dir"`         // 应用程序数据存储目录
	SheetName       string   `json:"sheet_name"`       // xlsx数据源的工作表名，为空取第一个
	LogName         string   `json:"log_name"`         // 日志文件
	LogMaxSize      string   `json:"log_max_size"`     // 日志轮转大小，如 "10 * 1024 * 1024"
	RefreshInterval Duration `json:"refresh_interval"` // 定时重算间隔，0表示不定时
	Watch           bool     `json:"watch"`            // 数据文件变化时是否重新加载

	Export struct {
		Dir  string `json:"dir"`  // 报表输出目录，为空不输出
		XLSX bool   `json:"xlsx"` // 是否输出xlsx报表
		CSV  bool   `json:"csv"`  // 是否按视图输出csv
	} `json:"export"`

	Filter FilterConfig `json:"filter"`
}

// FilterConfig 筛选条件，字段为空时使用数据全集
type FilterConfig struct {
	DateFrom     string   `json:"date_from"` // 2006-01-02
	DateTo       string   `json:"date_to"`
	VehicleTypes []string `json:"vehicle_types"`
	Statuses     []string `json:"statuses"`
}

// DataConfig 数据列映射与计算参数
type DataConfig struct {
	Columns         map[string]string `json:"columns"`         // 逻辑列名 -> 文件表头
	NumericColumns  []string          `json:"numeric_columns"` // 需要数值化的逻辑列
	Encoding        string            `json:"encoding"`        // utf-8 / gbk / utf-16le / utf-16be
	Delimiter       string            `json:"delimiter"`
	HeaderRow       int               `json:"header_row"` // xlsx表头所在行(从0开始)
	RollingWindow   int               `json:"rolling_window"`
	TopReasons      int               `json:"top_reasons"`
	HistogramBins   int               `json:"histogram_bins"`
	CompletedStatus string            `json:"completed_status"`
	CancelKeyword   string            `json:"cancel_keyword"`
}

// 逻辑列名
const (
	ColBookingID      = "booking_id"
	ColDate           = "date"
	ColTime           = "time"
	ColVehicleType    = "vehicle_type"
	ColBookingStatus  = "booking_status"
	ColBookingValue   = "booking_value"
	ColRideDistance   = "ride_distance"
	ColDriverRating   = "driver_rating"
	ColCustomerRating = "customer_rating"
	ColAvgVTAT        = "avg_vtat"
	ColAvgCTAT        = "avg_ctat"
	ColReasonCustomer = "cancel_reason_customer"
	ColReasonDriver   = "cancel_reason_driver"
)

// LogicalColumns 全部逻辑列，按文件中的常见顺序
var LogicalColumns = []string{
	ColBookingID, ColDate, ColTime, ColVehicleType, ColBookingStatus,
	ColBookingValue, ColRideDistance, ColDriverRating, ColCustomerRating,
	ColAvgVTAT, ColAvgCTAT, ColReasonCustomer, ColReasonDriver,
}

var (
	once               sync.Once
	instance           *Config
	dataConfigInstance *DataConfig
	mu                 sync.RWMutex
)

// DefaultDataConfig 返回与NCR订单导出文件一致的默认配置
func DefaultDataConfig() *DataConfig {
	return &DataConfig{
		Columns: map[string]string{
			ColBookingID:      "Booking ID",
			ColDate:           "Date",
			ColTime:           "Time",
			ColVehicleType:    "Vehicle Type",
			ColBookingStatus:  "Booking Status",
			ColBookingValue:   "Booking Value",
			ColRideDistance:   "Ride Distance",
			ColDriverRating:   "Driver Ratings",
			ColCustomerRating: "Customer Rating",
			ColAvgVTAT:        "Avg VTAT",
			ColAvgCTAT:        "Avg CTAT",
			ColReasonCustomer: "Reason for cancelling by Customer",
			ColReasonDriver:   "Driver Cancellation Reason",
		},
		NumericColumns: []string{
			ColBookingValue, ColRideDistance, ColDriverRating,
			ColCustomerRating, ColAvgVTAT, ColAvgCTAT,
		},
		Encoding:        "utf-8",
		Delimiter:       ",",
		RollingWindow:   7,
		TopReasons:      8,
		HistogramBins:   50,
		CompletedStatus: "Completed",
		CancelKeyword:   "cancel",
	}
}

func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	var err error
	once.Do(func() {
		instance, dataConfigInstance, err = loadConfigs(jsonFolder, jsonFile, dataJsonFile)
	})
	return instance, dataConfigInstance, err
}

func loadConfigs(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	dataConfigData, err := readFile(dataConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取数据配置文件失败: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseDataConfig(dataConfigData, dcfgChan, errChan)

	return waitForResults(cfgChan, dcfgChan, errChan)
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		errChan <- fmt.Errorf("解析Config失败: %w", err)
		return
	}
	if cfg.LogName == "" {
		cfg.LogName = "app.log"
	}
	resultChan <- &cfg
}

func parseDataConfig(data []byte, resultChan chan<- *DataConfig, errChan chan<- error) {
	var dcfg DataConfig
	if err := json.Unmarshal(data, &dcfg); err != nil {
		errChan <- fmt.Errorf("解析DataConfig失败: %w", err)
		return
	}
	dcfg.fillDefaults()
	resultChan <- &dcfg
}

// fillDefaults 未配置的项使用默认值，列映射按键合并
func (dc *DataConfig) fillDefaults() {
	def := DefaultDataConfig()
	if dc.Columns == nil {
		dc.Columns = map[string]string{}
	}
	for k, v := range def.Columns {
		if strings.TrimSpace(dc.Columns[k]) == "" {
			dc.Columns[k] = v
		}
	}
	if len(dc.NumericColumns) == 0 {
		dc.NumericColumns = def.NumericColumns
	}
	if dc.Encoding == "" {
		dc.Encoding = def.Encoding
	}
	if dc.Delimiter == "" {
		dc.Delimiter = def.Delimiter
	}
	if dc.RollingWindow <= 0 {
		dc.RollingWindow = def.RollingWindow
	}
	if dc.TopReasons <= 0 {
		dc.TopReasons = def.TopReasons
	}
	if dc.HistogramBins <= 0 {
		dc.HistogramBins = def.HistogramBins
	}
	if dc.CompletedStatus == "" {
		dc.CompletedStatus = def.CompletedStatus
	}
	if dc.CancelKeyword == "" {
		dc.CancelKeyword = def.CancelKeyword
	}
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg    *Config
		dcfg   *DataConfig
		errors []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return nil, nil, combineErrors(errors)
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("部分配置未加载成功")
	}

	return cfg, dcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	msg := "配置加载遇到多个错误:"
	for _, err := range errs {
		msg = fmt.Sprintf("%s\n- %v", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

// 环境变量，可写在 .env 中，优先于配置文件
const (
	EnvConfigDir  = "RIDEINSIGHT_CONFIG_DIR"
	EnvDataPath   = "RIDEINSIGHT_DATA_PATH"
	EnvSheetName  = "RIDEINSIGHT_SHEET_NAME"
	EnvExportDir  = "RIDEINSIGHT_EXPORT_DIR"
	EnvLogName    = "RIDEINSIGHT_LOG_NAME"
	EnvRefreshInt = "RIDEINSIGHT_REFRESH_INTERVAL"
)

// SourcePath 数据文件路径，相对路径以 DataDir 为基准
func (c *Config) SourcePath() string {
	if c.DataDir == "" || filepath.IsAbs(c.DataPath) {
		return c.DataPath
	}
	return filepath.Join(c.DataDir, c.DataPath)
}

// ApplyEnv 用环境变量覆盖配置，未设置的变量不影响配置
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvDataPath); v != "" {
		cfg.DataPath = v
	}
	if v := os.Getenv(EnvSheetName); v != "" {
		cfg.SheetName = v
	}
	if v := os.Getenv(EnvExportDir); v != "" {
		cfg.Export.Dir = v
	}
	if v := os.Getenv(EnvLogName); v != "" {
		cfg.LogName = v
	}
	if v := os.Getenv(EnvRefreshInt); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s 格式错误: %w", EnvRefreshInt, err)
		}
		cfg.RefreshInterval = Duration(d)
	}
	return nil
}

// Duration 是time.Duration的自定义包装类型
// 用于支持JSON序列化和反序列化
type Duration time.Duration

// UnmarshalJSON 实现json.Unmarshaler接口
// 用于从JSON字符串解析Duration
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalJSON 实现json.Marshaler接口
// 用于将Duration序列化为JSON字符串
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Column 返回逻辑列对应的表头，未配置时为空
func (dc *DataConfig) Column(logical string) string {
	mu.RLock()
	defer mu.RUnlock()
	return dc.Columns[logical]
}

// IsNumeric 判断逻辑列是否需要数值化
func (dc *DataConfig) IsNumeric(logical string) bool {
	mu.RLock()
	defer mu.RUnlock()
	for _, c := range dc.NumericColumns {
		if c == logical {
			return true
		}
	}
	return false
}

// Comma 返回csv分隔符
func (dc *DataConfig) Comma() rune {
	for _, r := range dc.Delimiter {
		return r
	}
	return ','
}
