package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// 令牌受众，学生端和管理端的令牌不能互用
const (
	AudienceStudent = "exam-student"
	AudienceAdmin   = "exam-admin"
)

// 输入长度上限
const (
	MaxUsernameLen = 50
	MaxPasswordLen = 100
	MaxStemLen     = 500
	MaxOptionLen   = 200
)

const (
	MimeCSV  = "text/csv"
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)
