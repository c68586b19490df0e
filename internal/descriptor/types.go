package descriptor

// Top-level section names.
const (
	SectionVersions   = "versions"
	SectionComponents = "components"
)

// Known component names.
const (
	ComponentSpark    = "spark"
	ComponentHadoop   = "hadoop"
	ComponentHive     = "hive"
	ComponentPostgres = "postgres"
	ComponentMinio    = "minio"
)

// RequiredVersionKeys lists the versions entries every descriptor must declare,
// in the order they are checked.
var RequiredVersionKeys = []string{"spark", "hadoop", "scala", "java", "delta", "hive", "postgres"}

// RequiredSparkFields lists the fields the spark component must declare.
var RequiredSparkFields = []string{"home", "delta_log_store", "s3a"}

// RequiredS3AFlags lists the boolean flags of the spark s3a record.
var RequiredS3AFlags = []string{"path_style_access", "connection_ssl_enabled"}

// VersionSet holds the version identifiers of every runtime.
type VersionSet struct {
	// Spark is the primary runtime version.
	Spark string `yaml:"spark" validate:"required,version"`

	// Hadoop is the auxiliary runtime version.
	Hadoop string `yaml:"hadoop" validate:"required,version"`

	Scala ScalaVersions `yaml:"scala"`
	Java  JavaVersions  `yaml:"java"`

	// Delta versions must be mutually compatible; this is not cross-checked.
	Delta DeltaVersions `yaml:"delta"`

	// Hive is the metastore service version.
	Hive string `yaml:"hive" validate:"required,version"`

	// Postgres is the database (JDBC driver) version.
	Postgres string `yaml:"postgres" validate:"required"`

	// AWSSDK is the AWS SDK bundle version. Optional.
	AWSSDK string `yaml:"aws_sdk,omitempty"`
}

// ScalaVersions holds the short and full scala identifiers.
type ScalaVersions struct {
	Version     string `yaml:"version" validate:"required,version"`
	FullVersion string `yaml:"full_version" validate:"required"`
}

// JavaVersions holds the java toolchain identifiers.
type JavaVersions struct {
	Version      string `yaml:"version" validate:"required"`
	Distribution string `yaml:"distribution,omitempty"`
	FullVersion  string `yaml:"full_version" validate:"required"`
}

// DeltaVersions holds the storage-layer extension versions.
type DeltaVersions struct {
	Core    string `yaml:"core" validate:"required,version"`
	Spark   string `yaml:"spark" validate:"required,version"`
	Storage string `yaml:"storage" validate:"required,version"`
}

// Components holds the typed settings of the known components.
// Only Spark is required; the others are nil when not declared.
type Components struct {
	Spark    *SparkSettings    `yaml:"spark" validate:"required"`
	Hadoop   *HadoopSettings   `yaml:"hadoop,omitempty" validate:"omitempty"`
	Hive     *HiveSettings     `yaml:"hive,omitempty" validate:"omitempty"`
	Postgres *PostgresSettings `yaml:"postgres,omitempty" validate:"omitempty"`
	Minio    *MinioSettings    `yaml:"minio,omitempty" validate:"omitempty"`
}

// SparkSettings configures the primary runtime component.
type SparkSettings struct {
	Home          string         `yaml:"home" validate:"required"`
	DeltaLogStore string         `yaml:"delta_log_store" validate:"required"`
	S3A           S3ASettings    `yaml:"s3a"`
	WarehouseDir  string         `yaml:"warehouse_dir,omitempty"`
	Master        *ServerAddress `yaml:"master,omitempty" validate:"omitempty"`
	Worker        *ServerAddress `yaml:"worker,omitempty" validate:"omitempty"`
}

// S3ASettings holds the object-store access flags.
type S3ASettings struct {
	PathStyleAccess      bool `yaml:"path_style_access"`
	ConnectionSSLEnabled bool `yaml:"connection_ssl_enabled"`
}

// ServerAddress is a host with its service and web UI ports.
type ServerAddress struct {
	Host      string `yaml:"host,omitempty"`
	Port      string `yaml:"port,omitempty" validate:"omitempty,port"`
	WebUIPort string `yaml:"webui_port,omitempty" validate:"omitempty,port"`
}

// HadoopSettings configures the hadoop installation.
type HadoopSettings struct {
	Home string `yaml:"home" validate:"required"`
}

// HiveSettings configures the metastore and server2 services.
type HiveSettings struct {
	Metastore *MetastoreSettings `yaml:"metastore,omitempty" validate:"omitempty"`
	Server2   *Server2Settings   `yaml:"server2,omitempty" validate:"omitempty"`
}

// MetastoreSettings locates the hive metastore.
type MetastoreSettings struct {
	Host string `yaml:"host" validate:"required"`
	Port string `yaml:"port" validate:"required,port"`
}

// Server2Settings configures hive server2.
type Server2Settings struct {
	Port           string `yaml:"port" validate:"required,port"`
	ThriftBindHost string `yaml:"thrift_bind_host,omitempty"`
}

// PostgresSettings locates the metastore database.
type PostgresSettings struct {
	Host     string `yaml:"host" validate:"required"`
	Port     string `yaml:"port" validate:"required,port"`
	Database string `yaml:"database" validate:"required"`
}

// MinioSettings locates the object store.
type MinioSettings struct {
	Endpoint string `yaml:"endpoint" validate:"required"`
	Bucket   string `yaml:"bucket" validate:"required"`
}
