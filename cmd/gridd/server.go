package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/CamberLoid/Inazuma/internal/coordlib"
	"github.com/CamberLoid/Inazuma/internal/db"
	"github.com/CamberLoid/Inazuma/internal/fhe"
	"github.com/CamberLoid/Inazuma/internal/keydist"
	"github.com/CamberLoid/Inazuma/internal/pedersen"
	"github.com/CamberLoid/Inazuma/internal/utilitylib"
)

var (
	CriticalLogger log.Logger
	ErrorLogger    log.Logger
	WarningLogger  log.Logger
	InfoLogger     log.Logger
	DebugLogger    log.Logger
)

var (
	Database *sql.DB
)

const (
	DefaultListenPort   = "16011"
	DefaultListenAddr   = "127.0.0.1"
	DefaultVersion      = "indev"
	DefaultDatabasePath = "gridd.db"
	DefaultCapacityKW   = 100.0
)

var (
	ConfigListenAddr   = DefaultListenAddr
	ConfigListenPort   = DefaultListenPort
	ConfigVersion      = DefaultVersion
	ConfigDatabasePath = DefaultDatabasePath
	ConfigCapacityKW   = DefaultCapacityKW
	ConfigParams       = fhe.DefaultParams
)

// 演示部署把 coordinator 和 utility 放在同一个进程里，
// 两个角色之间仍然只通过各自的 API 交互：
// coordinator 侧永远摸不到 secret 和 openings。
var (
	stateMu    sync.Mutex
	publicCtx  *fhe.PublicContext
	publicBlob []byte
	epoch      *keydist.Epoch
	scheme     *pedersen.Scheme
	utility    *utilitylib.Utility
	rounds     = make(map[uuid.UUID]*coordlib.Round)
)

func loggerInit() {
	CriticalLogger = *log.New(os.Stderr, "CRITICAL: ", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLogger = *log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	WarningLogger = *log.New(os.Stderr, "WARNING: ", log.Ldate|log.Ltime|log.Lshortfile)
	InfoLogger = *log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	DebugLogger = *log.New(os.Stdout, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
}

// cryptoInit 生成部署周期的密钥和承诺参数。
// 参数不合安全下限时直接终止进程，绝不带弱参数启动。
func cryptoInit() {
	var (
		secret *fhe.SecretContext
		err    error
	)
	publicCtx, secret, err = fhe.GenerateKeys(fhe.Config{Params: ConfigParams})
	if err != nil {
		CriticalLogger.Fatal(err.Error())
	}

	if publicBlob, err = keydist.DistributePublic(publicCtx); err != nil {
		CriticalLogger.Fatal(err.Error())
	}
	epoch = keydist.NewEpoch(publicCtx)

	scheme = pedersen.NewScheme()
	utility = utilitylib.NewUtility(secret, scheme, ConfigCapacityKW)

	InfoLogger.Printf("key epoch %s, params %s, fingerprint %s",
		epoch.ID, epoch.Params, epoch.Fingerprint)
}

func main() {
	var err error
	loggerInit()

	InfoLogger.Printf("Project Inazuma Gridd Version %s", ConfigVersion)

	cryptoInit()

	http.HandleFunc("/", HandleNotFound)
	http.HandleFunc("/version", HandlerVersion)
	http.HandleFunc("/context/public", HandlerPublicContext)

	// 回合部分
	http.HandleFunc("/round/new", HandlerRoundNew)
	http.HandleFunc("/round/close", HandlerRoundClose)
	http.HandleFunc("/round/outcome", HandlerRoundOutcome)

	// 贡献部分
	http.HandleFunc("/contribution/submit", HandlerContributionSubmit)
	http.HandleFunc("/opening/submit", HandlerOpeningSubmit)

	if Database, err = db.InitDatabase(ConfigDatabasePath); err != nil {
		CriticalLogger.Fatal(err.Error())
	}

	defer Database.Close()

	InfoLogger.Printf("Listening: %v", ConfigListenAddr+":"+ConfigListenPort)
	if err := http.ListenAndServe(ConfigListenAddr+":"+ConfigListenPort, nil); err != nil {
		log.Fatal(err)
	}
}
