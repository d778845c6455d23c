package factory

// BarrelFactoryABI is the subset of the factory ABI this client calls.
const BarrelFactoryABI = `[
  {
    "type": "function",
    "name": "create",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "_token", "type": "address"},
      {"name": "_penalty", "type": "uint256"},
      {"name": "_lockingPeriod", "type": "uint256"},
      {"name": "_expiry", "type": "uint256"},
      {"name": "_fee", "type": "uint256"},
      {"name": "_n", "type": "uint256"},
      {"name": "_feeRecipient", "type": "address"},
      {"name": "_bonusToken", "type": "address"}
    ],
    "outputs": [
      {"name": "", "type": "address"}
    ]
  }
]`

// CreateMethod is the factory method that brews a new barrel.
const CreateMethod = "create"
