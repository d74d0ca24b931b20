package config

// DefaultMandatoryVars have no default value because they depend on the deployment
const DefaultMandatoryVars = `
# L1URL is the RPC endpoint of the L1 node batches settle on
L1URL = "http://localhost:8545"

# OperatorAddress is reported as the operator of miniblocks whose batch is still open
OperatorAddress = "0x0000000000000000000000000000000000000000"
`

// DefaultVars are vars referenced by DefaultValues
const DefaultVars = `
PathRWData = "/tmp/zksync"
`

// DefaultValues is the default configuration
const DefaultValues = `
[Log]
Environment = "development" # "production" or "development"
Level = "info"
Outputs = ["stderr"]

[DB]
Driver = "sqlite3"
Path = "{{PathRWData}}/zksync.sqlite"
User = "zksync"
Password = ""
Name = "zksync"
Host = "localhost"
Port = "5432"
EnableLog = false
MaxConns = 200

[Multivm]
EnabledVersions = ["M5WithoutRefunds", "M5WithRefunds", "M6Initial", "M6BugWithCompressionFixed", "Vm1_3_2"]
DefaultProtocolVersion = 12

[Settlement]
L1URL = "{{L1URL}}"
CheckInterval = "10s"
ConfirmationsRequired = 1

[Operator]
Address = "{{OperatorAddress}}"
`
