package environ

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// ErrInvalidSparkEnv indicates a Spark variable that fails validation.
var ErrInvalidSparkEnv = errors.New("invalid spark environment")

// Spark node types.
const (
	NodeMaster = "master"
	NodeWorker = "worker"
)

// SparkEnv is the typed view of the Spark runtime variables. Unset optional
// variables stay empty; everything else has a default.
type SparkEnv struct {
	NodeType string `env:"SPARK_NODE_TYPE" envDefault:"master" validate:"oneof=master worker"`

	MasterHost      string `env:"SPARK_MASTER_HOST" envDefault:"0.0.0.0"`
	MasterPort      int    `env:"SPARK_MASTER_PORT" envDefault:"7077" validate:"min=0,max=65535"`
	MasterWebUIPort int    `env:"SPARK_MASTER_WEBUI_PORT" envDefault:"8080" validate:"min=0,max=65535"`
	MasterRestPort  int    `env:"SPARK_MASTER_REST_PORT" envDefault:"6066" validate:"min=0,max=65535"`
	MasterURL       string `env:"SPARK_MASTER_URL"`

	WorkerHost      string `env:"SPARK_WORKER_HOST" envDefault:"0.0.0.0"`
	WorkerCores     int    `env:"SPARK_WORKER_CORES" envDefault:"1" validate:"min=1"`
	WorkerMemory    string `env:"SPARK_WORKER_MEMORY" envDefault:"1g"`
	WorkerWebUIPort int    `env:"SPARK_WORKER_WEBUI_PORT" envDefault:"8081" validate:"min=0,max=65535"`
	WorkerPort      int    `env:"SPARK_WORKER_PORT" envDefault:"0" validate:"min=0,max=65535"`
	WorkerDir       string `env:"SPARK_WORKER_DIR" envDefault:"/opt/spark/work"`

	SparkHome      string `env:"SPARK_HOME" envDefault:"/opt/spark"`
	SparkConfDir   string `env:"SPARK_CONF_DIR" envDefault:"/opt/spark/conf"`
	SparkLocalDirs string `env:"SPARK_LOCAL_DIRS" envDefault:"/opt/spark/tmp"`
	JavaHome       string `env:"JAVA_HOME" envDefault:"/opt/java/openjdk"`

	AWSEndpointURL     string `env:"AWS_ENDPOINT_URL"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`

	DeltaLogStoreClass string `env:"SPARK_DELTA_LOG_STORE_CLASS" envDefault:"org.apache.spark.sql.delta.storage.S3SingleDriverLogStore"`
	SQLWarehouseDir    string `env:"SPARK_SQL_WAREHOUSE_DIR" envDefault:"s3a://warehouse"`

	S3APathStyleAccess      bool `env:"SPARK_HADOOP_FS_S3A_PATH_STYLE_ACCESS" envDefault:"true"`
	S3AConnectionSSLEnabled bool `env:"SPARK_HADOOP_FS_S3A_CONNECTION_SSL_ENABLED" envDefault:"true"`

	SQLCatalogImplementation string `env:"SPARK_SQL_CATALOG_IMPLEMENTATION"`
	HiveMetastoreURI         string `env:"SPARK_HIVE_METASTORE_URI"`
}

var sparkValidator = validator.New(validator.WithRequiredStructEnabled())

// LoadSparkEnv parses and validates the Spark variables of s.
func LoadSparkEnv(s *Snapshot) (*SparkEnv, error) {
	var e SparkEnv
	if err := env.ParseWithOptions(&e, env.Options{Environment: s.Map()}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSparkEnv, err)
	}

	if err := sparkValidator.Struct(&e); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field, _ := reflect.TypeOf(e).FieldByName(verrs[0].StructField())
			return nil, fmt.Errorf("%w: %s=%v fails %q", ErrInvalidSparkEnv,
				field.Tag.Get("env"), verrs[0].Value(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidSparkEnv, err)
	}
	return &e, nil
}

// Map returns the non-empty variables keyed by name, values formatted as
// they would appear in the environment.
func (e *SparkEnv) Map() map[string]string {
	out := make(map[string]string)
	v := reflect.ValueOf(*e)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get("env")
		value := fmt.Sprint(v.Field(i).Interface())
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}

// WithSparkDefaults returns a copy of s with every Spark default that s does
// not already set appended, in name order. It fails if a Spark variable in s
// is invalid, for example SPARK_NODE_TYPE outside master and worker.
func WithSparkDefaults(s *Snapshot) (*Snapshot, error) {
	e, err := LoadSparkEnv(s)
	if err != nil {
		return nil, err
	}

	out := FromPairs(s.Pairs())
	values := e.Map()
	keys := lo.Keys(values)
	sort.Strings(keys)
	for _, key := range keys {
		if _, exists := out.index[key]; exists {
			continue
		}
		out.set(key, values[key])
	}
	return out, nil
}
