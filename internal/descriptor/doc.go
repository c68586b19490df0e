// Package descriptor loads and validates the version/component descriptor
// that drives Dockerfile rendering.
//
// A descriptor declares the versions of every runtime the images are built
// from and the settings of each component:
//
//	versions:
//	  spark: 3.5.0
//	  hadoop: 3.3.4
//	  scala: {version: "2.12", full_version: "2.12.18"}
//	  java: {version: "11", distribution: temurin, full_version: 11.0.21+9}
//	  delta: {core: 2.4.0, spark: 3.3.2, storage: 2.4.0}
//	  hive: 3.1.3
//	  postgres: 42.6.0
//	components:
//	  spark:
//	    home: /opt/spark
//	    delta_log_store: org.apache.spark.sql.delta.storage.S3SingleDriverLogStore
//	    s3a: {path_style_access: true, connection_ssl_enabled: false}
//
// String values may embed template expressions such as
// {{versions.scala.version}}; they are kept verbatim here and resolved later
// by package resolve.
//
// # Validation
//
// Structural checks run in a fixed order and stop at the first failure:
// sections, required version keys, required spark fields, s3a flags, then
// value-level checks on the typed records. Every failure is a *ConfigError
// whose Kind can be matched with errors.Is.
package descriptor
