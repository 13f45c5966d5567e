package schema

import "time"

// DatabaseConnection represents the database_connections table - user-registered
// PostgreSQL destinations for indexed data
type DatabaseConnection struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// UserID is the owning user
	UserID uint64 `gorm:"column:user_id;not null;index"`
	// Name is a user-chosen label for this connection
	Name string `gorm:"column:name;not null;type:text"`
	// Host is the database host
	Host string `gorm:"column:host;not null;type:text"`
	// Port is the database port
	Port int `gorm:"column:port;not null;default:5432"`
	// Username is the database user
	Username string `gorm:"column:username;not null;type:text"`
	// EncryptedPassword is the AES-GCM sealed password, base64-encoded.
	// It is decrypted only at connection time.
	EncryptedPassword string `gorm:"column:encrypted_password;not null;type:text"`
	// DatabaseName is the target database name
	DatabaseName string `gorm:"column:database_name;not null;type:text"`
	// SchemaName is the target schema, defaults to public
	SchemaName string `gorm:"column:schema_name;not null;default:'public';type:text"`
	// UseSSL indicates whether to require TLS when connecting
	UseSSL bool `gorm:"column:use_ssl;not null;default:false"`
	// CreatedAt is the timestamp when this connection was registered
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this connection was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	// Associations
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the DatabaseConnection model
func (DatabaseConnection) TableName() string {
	return "database_connections"
}
