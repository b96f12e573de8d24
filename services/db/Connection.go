// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"sync"

	"github.com/Netcracker/qubership-apihub-http-forensics/entities"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

type Driver string

const (
	DriverSqlite   Driver = "sqlite3"
	DriverPostgres Driver = "postgres"
)

var flowIdColumn = map[Driver]string{
	DriverSqlite:   "Flow_Id INTEGER PRIMARY KEY AUTOINCREMENT",
	DriverPostgres: "Flow_Id SERIAL PRIMARY KEY",
}

const (
	createFlowsSQL = `CREATE TABLE IF NOT EXISTS Flows(%s, Client TEXT NOT NULL, Server TEXT NOT NULL, Run_Id TEXT NOT NULL)`
	// Transactions rows reference Flows
	createTransactionsSQL = `CREATE TABLE IF NOT EXISTS Transactions(Flow_Id INTEGER NOT NULL, Run_Id TEXT NOT NULL,
Time_Sec BIGINT NOT NULL, Time_Usec BIGINT NOT NULL, Method TEXT, Url TEXT, Host TEXT, Status INTEGER,
Body_Length BIGINT, Chunked BOOLEAN, Complete BOOLEAN)`
	selectFlowSQL        = "SELECT Flow_Id FROM Flows WHERE Client=$1 AND Server=$2 AND Run_Id=$3"
	insertFlowSQL        = "INSERT INTO Flows(Client, Server, Run_Id) VALUES($1, $2, $3)"
	insertTransactionSQL = `INSERT INTO Transactions(Flow_Id, Run_Id, Time_Sec, Time_Usec, Method, Url, Host, Status,
Body_Length, Chunked, Complete) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	countTransactionsSQL = "SELECT COUNT(*) FROM Transactions WHERE Run_Id=$1"
)

// Connection
// transaction store access shared by all runs of the process
type Connection interface {
	GetPrepareStatement(stmtSQL string) (*sql.Stmt, error)
	GetScalarValue(sqlStmt string, params ...interface{}) (interface{}, error)
	Execute(sqlStmt string, params ...interface{}) error
	InitSchema() error
	GetFlowId(runId string, client, server entities.Endpoint) (int, error)
	InsertTransaction(flowId int, runId string, tx entities.HttpTransaction) error
	CountTransactions(runId string) (int, error)
	Close() error
}

type connection struct {
	db         *sql.DB
	driver     Driver
	lock       sync.Mutex
	statements map[string]*sql.Stmt
}

// MakeConnection
// opens the database for the configured driver
func MakeConnection(attrs entities.DbConnAttrs) (Connection, error) {
	var connectionString string
	driver := Driver(attrs.Driver)
	switch driver {
	case DriverSqlite:
		connectionString = fmt.Sprintf("file:%s", attrs.DbName)
	case DriverPostgres:
		connectionString = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			attrs.Host, attrs.Port, attrs.User, attrs.Password, attrs.DbName)
	default:
		return nil, fmt.Errorf("driver %s not supported", attrs.Driver)
	}
	sqlDb, err := sql.Open(string(driver), connectionString)
	if err != nil {
		return nil, err
	}
	if driver == DriverSqlite {
		sqlDb.SetMaxOpenConns(1)
	}
	return &connection{db: sqlDb, driver: driver, statements: make(map[string]*sql.Stmt)}, nil
}

func (c *connection) GetPrepareStatement(stmtSQL string) (*sql.Stmt, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if stmt, ok := c.statements[stmtSQL]; ok {
		return stmt, nil
	}
	stmt, err := c.db.Prepare(stmtSQL)
	if err == nil {
		c.statements[stmtSQL] = stmt
	}
	return stmt, err
}

func (c *connection) GetScalarValue(sqlStmt string, params ...interface{}) (interface{}, error) {
	stmt, err := c.GetPrepareStatement(sqlStmt)
	if err != nil {
		return -1, err
	}
	var value interface{}
	err = stmt.QueryRow(params...).Scan(&value)
	return value, err
}

func (c *connection) Execute(sqlStmt string, params ...interface{}) error {
	stmt, err := c.GetPrepareStatement(sqlStmt)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(params...)
	return err
}

// InitSchema
// creates the tables when missing
func (c *connection) InitSchema() error {
	if _, err := c.db.Exec(fmt.Sprintf(createFlowsSQL, flowIdColumn[c.driver])); err != nil {
		return fmt.Errorf("unable to create table Flows: %w", err)
	}
	if _, err := c.db.Exec(createTransactionsSQL); err != nil {
		return fmt.Errorf("unable to create table Transactions: %w", err)
	}
	return nil
}

// GetFlowId
// existing id of the flow in the run, inserted on first request
func (c *connection) GetFlowId(runId string, client, server entities.Endpoint) (int, error) {
	params := []interface{}{client.String(), server.String(), runId}
	for i := 0; i < 2; i++ {
		idv, err := c.GetScalarValue(selectFlowSQL, params...)
		if err == nil {
			return VarToInt(idv)
		}
		if err != sql.ErrNoRows {
			return -1, err
		}
		if i == 0 {
			if err = c.Execute(insertFlowSQL, params...); err != nil {
				return -2, err
			}
		}
	}
	return -3, fmt.Errorf("attempts exhausted")
}

func (c *connection) InsertTransaction(flowId int, runId string, tx entities.HttpTransaction) error {
	return c.Execute(insertTransactionSQL, flowId, runId,
		int64(tx.Request.Seconds), int64(tx.Request.Micros),
		tx.Request.Method, tx.Request.Url, tx.Request.Host,
		tx.Response.StatusCode, tx.Response.BodyLength, tx.Response.Chunked, tx.Response.Complete)
}

func (c *connection) CountTransactions(runId string) (int, error) {
	value, err := c.GetScalarValue(countTransactionsSQL, runId)
	if err != nil {
		return -1, err
	}
	return VarToInt(value)
}

// Close
// releases prepared statements and the pool
func (c *connection) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	for key, stmt := range c.statements {
		if err := stmt.Close(); err != nil {
			log.Warnf("unable to close statement: %v", err)
		}
		delete(c.statements, key)
	}
	return c.db.Close()
}

// VarToInt
// converts a scanned scalar to int
func VarToInt(idv interface{}) (int, error) {
	s2, err := strconv.Atoi(fmt.Sprintf("%v", idv))
	if err != nil {
		log.Errorf("unable to convert returned value '%v' to int: %v", idv, err)
		return -2, err
	}
	return s2, nil
}
